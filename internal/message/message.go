// Package message renders every SMS text the service sends, in the three
// supported languages. Texts are rendered fully before queueing so the
// delivery scheduler can group identical messages into one gateway call.
package message

import (
	"fmt"
	"time"
)

// DefaultLang is used whenever a subscriber's language has no text.
const DefaultLang = "fi"

var warningBodies = map[string]string{
	"fi": "[%s] Varoitus: Ulkona on erittäin liukasta. Ole varovainen liikkuessasi ulkona.",
	"en": "[%s] Warning: Pedestrian conditions are very slippery. Please be careful when walking outside.",
	"sv": "[%s] Varning: Fotgängarvädret är mycket halt. Var försiktig när du är utomhus.",
}

var joinConfirmations = map[string]string{
	"en": "Thank you for joining - you will now receive slippery warnings for %s at %s!",
	"fi": "Kiitos liittymisestä - saat nyt liukkausvaroituksia alueelle %s klo %s!",
	"sv": "Tack för att du anslöt - du kommer nu få varningar för hala vägar för %s kl %s!",
}

var immediateJoinConfirmations = map[string]string{
	"en": "Thank you for joining - you will now receive warnings for %s!",
	"fi": "Kiitos liittymisestä - saat nyt varoitukset alueelle %s!",
	"sv": "Tack för att du anslöt - du kommer nu få varningar för %s!",
}

var stopConfirmations = map[string]string{
	"fi": "Olet poistettu palvelusta. Et saa enää varoitusviestejä.",
	"en": "You have been unsubscribed. You will no longer receive warnings.",
	"sv": "Du har avregistrerats. Du kommer inte längre att få varningar.",
}

// Stamp formats an instant as a Helsinki-local timestamp for message bodies.
func Stamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// WarningBody renders the slipperiness warning text for a language.
func WarningBody(lang, stamp string) string {
	body, found := warningBodies[lang]
	if !found {
		body = warningBodies[DefaultLang]
	}
	return fmt.Sprintf(body, stamp)
}

// JoinConfirmation renders the registration confirmation for a subscriber
// with a daily slot ("08:00").
func JoinConfirmation(lang, area, hour string) string {
	text, found := joinConfirmations[lang]
	if !found {
		text = joinConfirmations[DefaultLang]
	}
	return fmt.Sprintf(text, area, hour)
}

// ImmediateJoinConfirmation renders the registration confirmation for a
// subscriber without a preferred hour.
func ImmediateJoinConfirmation(lang, area string) string {
	text, found := immediateJoinConfirmations[lang]
	if !found {
		text = immediateJoinConfirmations[DefaultLang]
	}
	return fmt.Sprintf(text, area)
}

// StopConfirmation renders the unsubscribe confirmation.
func StopConfirmation(lang string) string {
	text, found := stopConfirmations[lang]
	if !found {
		text = stopConfirmations[DefaultLang]
	}
	return text
}
