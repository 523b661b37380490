package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	webpush "github.com/SherClockHolmes/webpush-go"
	log "github.com/sirupsen/logrus"
)

func main() {
	out := flag.String("out", "./data/vapid_keys.env", "file to write the keys to")
	subject := flag.String("subject", "mailto:admin@example.com", "VAPID subject")
	flag.Parse()

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		log.Fatalf("Failed to generate VAPID keys: %v", err)
	}

	if _, err := base64.RawURLEncoding.DecodeString(publicKey); err != nil {
		log.WithError(err).Warn("Public key is not valid base64 URL encoding")
	}

	envContent := fmt.Sprintf(`# Web Push VAPID keys for the scheduler server
VAPID_PUBLIC_KEY=%s
VAPID_PRIVATE_KEY=%s
VAPID_SUBJECT=%s
`, publicKey, privateKey, *subject)

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := os.WriteFile(*out, []byte(envContent), 0600); err != nil {
		log.Fatalf("Failed to write keys to file: %v", err)
	}

	log.WithFields(log.Fields{
		"file":       *out,
		"public_key": publicKey,
	}).Info("VAPID keys generated")
	fmt.Print(envContent)
}
