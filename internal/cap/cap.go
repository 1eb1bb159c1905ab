// Package cap parses Common Alerting Protocol documents from the alert feed
// into a validated, strongly-typed message. Everything downstream of the
// ingestion boundary works with AlertMessage, never with raw XML.
package cap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MessageType is the alert's lifecycle kind. Anything the authority labels
// other than Update or Cancel announces a new hazard.
type MessageType string

const (
	MessageNew    MessageType = "New"
	MessageUpdate MessageType = "Update"
	MessageCancel MessageType = "Cancel"
)

// AlertMessage is one parsed alert document.
type AlertMessage struct {
	Identifier string
	Type       MessageType
	Info       []Info
}

// Info is one per-language block of an alert.
type Info struct {
	Lang        string
	Event       string
	Onset       *time.Time
	Expires     *time.Time
	Headline    string
	Description string
	Areas       []string
}

// LangCode returns the two-letter lowercase language code ("en-GB" -> "en").
func (i Info) LangCode() string {
	code := strings.ToLower(strings.TrimSpace(i.Lang))
	if len(code) > 2 {
		code = code[:2]
	}
	return code
}

type xmlAlert struct {
	Identifier string    `xml:"identifier"`
	MsgType    string    `xml:"msgType"`
	Info       []xmlInfo `xml:"info"`
}

type xmlInfo struct {
	Language    string    `xml:"language"`
	Event       string    `xml:"event"`
	Onset       string    `xml:"onset"`
	Expires     string    `xml:"expires"`
	Headline    string    `xml:"headline"`
	Description string    `xml:"description"`
	Areas       []xmlArea `xml:"area"`
}

type xmlArea struct {
	AreaDesc string `xml:"areaDesc"`
}

// Parse decodes and validates a CAP alert document.
func Parse(data []byte) (AlertMessage, error) {
	var raw xmlAlert
	if err := xml.Unmarshal(data, &raw); err != nil {
		return AlertMessage{}, fmt.Errorf("failed to decode alert document: %w", err)
	}
	if strings.TrimSpace(raw.Identifier) == "" {
		return AlertMessage{}, errors.New("alert document has no identifier")
	}

	msg := AlertMessage{
		Identifier: strings.TrimSpace(raw.Identifier),
		Type:       messageType(raw.MsgType),
	}
	for _, in := range raw.Info {
		info := Info{
			Lang:        strings.TrimSpace(in.Language),
			Event:       strings.TrimSpace(in.Event),
			Onset:       parseTime(in.Onset),
			Expires:     parseTime(in.Expires),
			Headline:    strings.TrimSpace(in.Headline),
			Description: strings.TrimSpace(in.Description),
		}
		for _, a := range in.Areas {
			if desc := strings.TrimSpace(a.AreaDesc); desc != "" {
				info.Areas = append(info.Areas, desc)
			}
		}
		msg.Info = append(msg.Info, info)
	}
	return msg, nil
}

func messageType(raw string) MessageType {
	switch strings.TrimSpace(raw) {
	case "Cancel":
		return MessageCancel
	case "Update":
		return MessageUpdate
	default:
		return MessageNew
	}
}

// parseTime accepts CAP's RFC 3339 timestamps; unparseable values become nil
// so callers can apply their own fallbacks.
func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
