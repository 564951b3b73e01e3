package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
	localeGerman  locale = "de"
)

type messages struct {
	idle      string
	waiting   string
	active    string
	errorText string
}

var catalog = map[locale]messages{
	localeEnglish: {
		idle:      "Stopped",
		waiting:   "Listening for wake phrase…",
		active:    "Transcribing…",
		errorText: "Speech recognition error",
	},
	localeGerman: {
		idle:      "Angehalten",
		waiting:   "Warte auf Aktivierungsphrase…",
		active:    "Transkribiere…",
		errorText: "Fehler bei der Spracherkennung",
	},
}

// indicatorMessagesFromEnv follows LC_ALL, then LC_MESSAGES, then LANG.
func indicatorMessagesFromEnv() messages {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			return indicatorMessages(resolveLocale(raw))
		}
	}
	return indicatorMessages(localeEnglish)
}

// resolveLocale maps a POSIX locale such as de_DE.UTF-8 to a catalog entry.
func resolveLocale(raw string) locale {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(lang, "_.@-"); i >= 0 {
		lang = lang[:i]
	}
	if _, ok := catalog[locale(lang)]; ok {
		return locale(lang)
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	if msg, ok := catalog[tag]; ok {
		return msg
	}
	return catalog[localeEnglish]
}
