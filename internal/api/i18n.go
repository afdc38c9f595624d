package api

import (
	"net/http"

	"golang.org/x/text/language"
)

// Response messages are negotiated from Accept-Language. French is the
// default catalogue; the English one mirrors it key for key.

type messageKey string

const (
	msgCourseCreated   messageKey = "course.created"
	msgCourseUpdated   messageKey = "course.updated"
	msgCourseDeleted   messageKey = "course.deleted"
	msgCourseNotFound  messageKey = "course.notFound"
	msgCourseExists    messageKey = "course.exists"
	msgSessionCreated  messageKey = "session.created"
	msgSessionUpdated  messageKey = "session.updated"
	msgSessionDeleted  messageKey = "session.deleted"
	msgSessionNotFound messageKey = "session.notFound"
	msgSessionExists   messageKey = "session.exists"
	msgInvalidPayload  messageKey = "request.invalidPayload"
	msgInvalidID       messageKey = "request.invalidID"
)

var supportedLanguages = []language.Tag{
	language.French,
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var catalogues = map[language.Tag]map[messageKey]string{
	language.French: {
		msgCourseCreated:   "Cours créé avec succès.",
		msgCourseUpdated:   "Cours mis à jour avec succès.",
		msgCourseDeleted:   "Cours supprimé avec succès.",
		msgCourseNotFound:  "Cours non trouvé.",
		msgCourseExists:    "Un cours avec cet identifiant existe déjà.",
		msgSessionCreated:  "Séance créée avec succès.",
		msgSessionUpdated:  "Séance mise à jour avec succès.",
		msgSessionDeleted:  "Séance supprimée avec succès.",
		msgSessionNotFound: "Séance non trouvée.",
		msgSessionExists:   "Une séance avec cet identifiant existe déjà.",
		msgInvalidPayload:  "Corps de requête invalide.",
		msgInvalidID:       "Identifiant invalide.",
	},
	language.English: {
		msgCourseCreated:   "Course created successfully.",
		msgCourseUpdated:   "Course updated successfully.",
		msgCourseDeleted:   "Course deleted successfully.",
		msgCourseNotFound:  "Course not found.",
		msgCourseExists:    "A course with this identifier already exists.",
		msgSessionCreated:  "Session created successfully.",
		msgSessionUpdated:  "Session updated successfully.",
		msgSessionDeleted:  "Session deleted successfully.",
		msgSessionNotFound: "Session not found.",
		msgSessionExists:   "A session with this identifier already exists.",
		msgInvalidPayload:  "Invalid request body.",
		msgInvalidID:       "Invalid identifier.",
	},
}

func localize(r *http.Request, key messageKey) string {
	tag := supportedLanguages[0]
	if r != nil {
		if header := r.Header.Get("Accept-Language"); header != "" {
			_, index := language.MatchStrings(languageMatcher, header)
			tag = supportedLanguages[index]
		}
	}
	if msg, ok := catalogues[tag][key]; ok {
		return msg
	}
	return catalogues[supportedLanguages[0]][key]
}

func writeLocalizedError(w http.ResponseWriter, r *http.Request, status int, key messageKey) {
	writeJSON(w, status, map[string]string{"error": localize(r, key)})
}
