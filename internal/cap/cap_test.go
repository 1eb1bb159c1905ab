package cap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAlert = `<?xml version="1.0" encoding="UTF-8"?>
<alert xmlns="urn:oasis:names:tc:emergency:cap:1.2">
  <identifier>2.49.0.1.246.0.1.2026.1.15.120000</identifier>
  <sender>feed@example.fi</sender>
  <msgType>Alert</msgType>
  <info>
    <language>en-GB</language>
    <event>Pedestrian weather</event>
    <onset>2026-01-15T14:00:00+02:00</onset>
    <expires>2026-01-16T08:00:00+02:00</expires>
    <headline>Very slippery pedestrian conditions</headline>
    <description>Pavements are extremely icy.</description>
    <area><areaDesc>Uusimaa</areaDesc></area>
    <area><areaDesc>Southern Finland</areaDesc></area>
  </info>
  <info>
    <language>fi-FI</language>
    <event>Jalankulkusää</event>
    <onset>2026-01-15T14:00:00+02:00</onset>
    <expires>not-a-time</expires>
    <headline>Erittäin liukasta</headline>
    <description>Jalkakäytävät ovat erittäin jäisiä.</description>
    <area><areaDesc>Uusimaa</areaDesc></area>
  </info>
</alert>`

func TestParseAlert(t *testing.T) {
	msg, err := Parse([]byte(sampleAlert))
	require.NoError(t, err)

	assert.Equal(t, "2.49.0.1.246.0.1.2026.1.15.120000", msg.Identifier)
	assert.Equal(t, MessageNew, msg.Type)
	require.Len(t, msg.Info, 2)

	en := msg.Info[0]
	assert.Equal(t, "en", en.LangCode())
	assert.Equal(t, "Pedestrian weather", en.Event)
	assert.Equal(t, []string{"Uusimaa", "Southern Finland"}, en.Areas)
	require.NotNil(t, en.Onset)
	assert.Equal(t, time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), en.Onset.UTC())
	require.NotNil(t, en.Expires)

	fi := msg.Info[1]
	assert.Equal(t, "fi", fi.LangCode())
	assert.Nil(t, fi.Expires, "unparseable expiry becomes nil")
}

func TestParseMessageTypes(t *testing.T) {
	for raw, want := range map[string]MessageType{
		"Alert": MessageNew, "Update": MessageUpdate, "Cancel": MessageCancel, "Ack": MessageNew,
	} {
		doc := `<alert><identifier>x</identifier><msgType>` + raw + `</msgType></alert>`
		msg, err := Parse([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, want, msg.Type, "msgType %s", raw)
	}
}

func TestParseRejectsMissingIdentifier(t *testing.T) {
	_, err := Parse([]byte(`<alert><msgType>Alert</msgType></alert>`))
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte(`{"not":"xml"}`))
	assert.Error(t, err)
}
