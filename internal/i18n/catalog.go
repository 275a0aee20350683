// Package i18n holds the user-facing message catalog. Only generic messages
// live here; internal error detail never reaches supporters.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	MsgGeneric         = "Something went wrong. Please try again."
	MsgInvalidRequest  = "The request could not be processed. Please check your details."
	MsgNotFound        = "We could not find what you were looking for."
	MsgUnavailable     = "Payments are temporarily unavailable. Please try again shortly."
	MsgRejected        = "The payment provider declined this request."
	MsgUnauthorized    = "You are not allowed to do that."
	MsgConflict        = "This request conflicts with an existing record."
	MsgTooManyRequests = "Too many requests. Please wait a moment and try again."
)

var hindi = map[string]string{
	MsgGeneric:         "कुछ गलत हो गया। कृपया पुनः प्रयास करें।",
	MsgInvalidRequest:  "अनुरोध संसाधित नहीं हो सका। कृपया अपना विवरण जाँचें।",
	MsgNotFound:        "आप जो ढूँढ रहे थे वह हमें नहीं मिला।",
	MsgUnavailable:     "भुगतान अस्थायी रूप से उपलब्ध नहीं है। कृपया थोड़ी देर बाद पुनः प्रयास करें।",
	MsgRejected:        "भुगतान प्रदाता ने यह अनुरोध अस्वीकार कर दिया।",
	MsgUnauthorized:    "आपको यह करने की अनुमति नहीं है।",
	MsgConflict:        "यह अनुरोध किसी मौजूदा रिकॉर्ड से टकराता है।",
	MsgTooManyRequests: "बहुत अधिक अनुरोध। कृपया थोड़ी देर बाद प्रयास करें।",
}

// Supported lists the locales with translations, default first.
var Supported = []language.Tag{language.English, language.Hindi}

var (
	matcher = language.NewMatcher(Supported)
	cat     = buildCatalog()
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range hindi {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Hindi, key, text)
	}
	return b
}

// Match picks the supported locale for an Accept-Language style value and
// returns its base code ("en" or "hi"). ok is false when nothing matched.
func Match(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	base, _ := Supported[idx].Base()
	return base.String(), true
}

// Translate returns the message for key in locale, falling back to English.
func Translate(locale, key string) string {
	tag := language.English
	if code, ok := Match(locale); ok {
		tag = language.Make(code)
	}
	return message.NewPrinter(tag, message.Catalog(cat)).Sprintf(key)
}
