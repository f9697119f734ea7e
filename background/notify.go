package background

import (
	"context"

	"github.com/spf13/viper"

	"github.com/hel3-14t/helpmate-api/external/onesignal"
)

// OneSignalLanguageCode is a mapping between onesignal language code and i18n language code
var OneSignalLanguageCode = map[string]string{
	"en": "en",
	"hi": "hi",
}

// notifyAccountsByTemplate will consolidate account numbers and submit notification requests
func (m *BackgroundManager) notifyAccountsByTemplate(accountNumbers []string, templateID string, data map[string]interface{}) error {
	filters := []map[string]string{}
	for i, a := range accountNumbers {
		if i%100 == 0 {
			filters = append(filters, map[string]string{
				"field":    "tag",
				"key":      "account_number",
				"relation": "=",
				"value":    a,
			})
		} else {
			filters = append(filters,
				map[string]string{"operator": "OR"},
				map[string]string{
					"field":    "tag",
					"key":      "account_number",
					"relation": "=",
					"value":    a,
				})
		}
		if i%100 == 99 {
			req := &onesignal.NotificationRequest{
				AppID:          viper.GetString("onesignal.appid"),
				TemplateID:     templateID,
				Filters:        filters,
				Data:           data,
				LocalChannelID: "help_alert",
			}
			if err := m.onesignal.SendNotification(context.Background(), req); err != nil {
				return err
			}
			filters = []map[string]string{}
		}
	}
	// send rest of notification
	req := &onesignal.NotificationRequest{
		AppID:          viper.GetString("onesignal.appid"),
		TemplateID:     templateID,
		Filters:        filters,
		Data:           data,
		LocalChannelID: "help_alert",
	}
	return m.onesignal.SendNotification(context.Background(), req)
}

// notifyAccountByText will send message to an account by raw headings, contents and data
func (m *BackgroundManager) notifyAccountByText(accountNumber string, headings, contents map[string]string, data map[string]interface{}) error {
	filters := []map[string]string{
		{
			"field":    "tag",
			"key":      "account_number",
			"relation": "=",
			"value":    accountNumber,
		},
	}

	req := &onesignal.NotificationRequest{
		AppID:          viper.GetString("onesignal.appid"),
		Headings:       headings,
		Contents:       contents,
		Filters:        filters,
		Data:           data,
		LocalChannelID: "help_alert",
	}
	return m.onesignal.SendNotification(context.Background(), req)
}
