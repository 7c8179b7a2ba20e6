package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"krishi-mitra/pkg/webhookclient"
)

// Interactive console client for poking the webhook locally. Prefix a
// line with "img:" to simulate a media message with that URL.
func main() {
	reader := bufio.NewReader(os.Stdin)
	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)

	serverURL := "http://127.0.0.1:8080"
	if os.Getenv("SERVER_URL") != "" {
		serverURL = os.Getenv("SERVER_URL")
	}

	sender := "whatsapp:client-cli"
	if os.Getenv("SENDER") != "" {
		sender = os.Getenv("SENDER")
	}

	client := webhookclient.New(serverURL)

	for {
		fmt.Print("> ")
		input, _, err := reader.ReadLine()
		if err != nil {
			fmt.Println("Error reading input:", err)
			return
		}

		body := string(input)
		mediaURL := ""
		if strings.HasPrefix(body, "img:") {
			mediaURL = strings.TrimSpace(strings.TrimPrefix(body, "img:"))
			body = ""
		}

		spin.Start()
		response, err := client.Send(sender, body, mediaURL)
		spin.Stop()
		if err != nil {
			fmt.Println("Error during receiving response:", err)

			continue
		}

		fmt.Print(">> ", response, "\n")
	}
}
