package background

import (
	"context"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"

	"github.com/hel3-14t/helpmate-api/external/onesignal"
	"github.com/hel3-14t/helpmate-api/utils"
)

const (
	BROADCAST_NEW_HELP   = "8d4f1fca-5a49-4e20-9b7c-3f8430c1d2b7"
	NOTIFY_HELP_ACCEPTED = "f37b62c1-9e0d-4dd7-8a52-6be0914afec3"
)

// BroadcastNewHelp is a background job to send notifications to nearby
// volunteers when a user publishes a new help request
func (m *BackgroundManager) BroadcastNewHelp(helpID string, accountNumbers []string) error {
	if len(accountNumbers) == 0 {
		log.WithFields(log.Fields{
			"prefix":  "background",
			"help_id": helpID,
		}).Info("no nearby volunteers to notify")
		return nil
	}

	return m.notifyAccountsByTemplate(accountNumbers, BROADCAST_NEW_HELP, map[string]interface{}{
		"notification_type": "BROADCAST_NEW_HELP",
		"help_id":           helpID,
	})
}

// NotifyHelpAccepted is a background job to tell a volunteer that the
// requester has accepted their offer to help
func (m *BackgroundManager) NotifyHelpAccepted(helpID string, accountNumber string) error {
	accountNumbers := []string{accountNumber}
	return m.notifyAccountsByTemplate(accountNumbers, NOTIFY_HELP_ACCEPTED, map[string]interface{}{
		"notification_type": "NOTIFY_HELP_ACCEPTED",
		"help_id":           helpID,
	})
}

// ExpireHelpRequests is a background job to close stale help requests and
// tell each creator that nobody took theirs up in time
func (m *BackgroundManager) ExpireHelpRequests() error {
	expired, err := m.store.ExpireHelps(context.Background())
	if err != nil {
		return err
	}

	headings := map[string]string{}
	contents := map[string]string{}
	for key, lang := range OneSignalLanguageCode {
		loc := utils.NewLocalizer(lang)
		if title, err := loc.Localize(&i18n.LocalizeConfig{
			MessageID: "notification.help_expired.title",
		}); err == nil {
			headings[key] = title
		}
		if body, err := loc.Localize(&i18n.LocalizeConfig{
			MessageID: "notification.help_expired.body",
		}); err == nil {
			contents[key] = body
		}
	}

	for _, help := range expired {
		err := m.notifyAccountByText(help.Creator, headings, contents, map[string]interface{}{
			"notification_type": "NOTIFY_HELP_EXPIRED",
			"help_id":           help.ID,
		})
		if err != nil && !onesignal.IsErrAllPlayersNotSubscribed(err) {
			log.WithFields(log.Fields{
				"prefix":  "background",
				"help_id": help.ID,
				"error":   err,
			}).Error("notify help request expired")
		}
	}

	return nil
}
