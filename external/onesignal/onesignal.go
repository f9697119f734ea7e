package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/spf13/viper"
)

const defaultURL = "https://onesignal.com/api/v1"

var errAllPlayersNotSubscribed = fmt.Errorf("all included players are not subscribed")

// NotificationRequest is the request body of a notification submission.
// Either TemplateID or raw Headings and Contents should be set.
type NotificationRequest struct {
	AppID          string                 `json:"app_id"`
	TemplateID     string                 `json:"template_id,omitempty"`
	Headings       map[string]string      `json:"headings,omitempty"`
	Contents       map[string]string      `json:"contents,omitempty"`
	Filters        []map[string]string    `json:"filters,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	LocalChannelID string                 `json:"existing_android_channel_id,omitempty"`
}

type notificationResponse struct {
	ID     string   `json:"id"`
	Errors []string `json:"errors"`
}

type OneSignalClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewClient(client *http.Client) *OneSignalClient {
	endpoint := viper.GetString("onesignal.endpoint")
	if endpoint == "" {
		endpoint = defaultURL
	}

	return &OneSignalClient{
		endpoint: endpoint,
		apiKey:   viper.GetString("onesignal.apikey"),
		client:   client,
	}
}

// SendNotification submits a notification request to onesignal
func (o *OneSignalClient) SendNotification(ctx context.Context, notification *NotificationRequest) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.endpoint+"/notifications", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	d, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("fail to submit notification: %s", string(d))
	}

	var r notificationResponse
	if err := json.Unmarshal(d, &r); err != nil {
		return err
	}

	for _, e := range r.Errors {
		if strings.Contains(e, "not subscribed") {
			return errAllPlayersNotSubscribed
		}
	}
	if len(r.Errors) > 0 {
		return fmt.Errorf("notification submitted with errors: %v", r.Errors)
	}

	return nil
}

// IsErrAllPlayersNotSubscribed checks if an error is returned because
// no targeted device has subscribed for notifications
func IsErrAllPlayersNotSubscribed(err error) bool {
	return err == errAllPlayersNotSubscribed
}
