// Posts a fake lifecycle event to a locally running hosted-embed webhook,
// for poking the adapter without a vendor account.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
)

func main() {
	target := flag.String("url", "http://localhost:8091/embed/events", "")
	eventType := flag.String("type", "joined", "ready|joined|left|fatal_error|custom_button_click")
	code := flag.String("code", "", "error code for fatal_error")
	message := flag.String("message", "", "error message for fatal_error")
	buttonID := flag.String("button", "", "button id for custom_button_click")
	secret := flag.String("secret", "", "webhook secret, if configured")
	flag.Parse()

	payload, err := json.Marshal(map[string]string{
		"type":      *eventType,
		"code":      *code,
		"message":   *message,
		"button_id": *buttonID,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, *target, bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if *secret != "" {
		req.Header.Set("X-Webhook-Secret", *secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	fmt.Println(resp.Status)
}
