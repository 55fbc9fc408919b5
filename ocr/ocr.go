//go:build ocr

// Package ocr re-reads number crops with the Tesseract OCR engine.
//
// This package wraps Tesseract via gosseract. It requires Tesseract to be
// installed on the system. On macOS, install via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps a Tesseract instance configured for number crops.
// A Client reads one image at a time; see Verifier for shared use.
type Client struct {
	client *gosseract.Client
	config Config
}

// New creates a client with DefaultConfig.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a client with custom configuration.
func NewWithConfig(config Config) (*Client, error) {
	c := &Client{client: gosseract.NewClient(), config: config}

	if config.Language != "" {
		if err := c.SetLanguage(config.Language); err != nil {
			c.Close()
			return nil, fmt.Errorf("ocr: set language %q: %w", config.Language, err)
		}
	}
	if err := c.SetPageSegMode(config.PageSegMode); err != nil {
		c.Close()
		return nil, fmt.Errorf("ocr: set page segmentation mode %d: %w", config.PageSegMode, err)
	}
	if config.Whitelist != "" {
		if err := c.client.SetWhitelist(config.Whitelist); err != nil {
			c.Close()
			return nil, fmt.Errorf("ocr: set whitelist: %w", err)
		}
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// RecognizeImage reads encoded image data (PNG, TIFF, JPEG, etc.) and
// returns the text with surrounding whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognize: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// SetLanguage sets the language(s) for recognition.
func (c *Client) SetLanguage(lang string) error {
	c.config.Language = lang
	return c.client.SetLanguage(lang)
}

// SetPageSegMode sets the page segmentation mode.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	c.config.PageSegMode = mode
	return c.client.SetPageSegMode(gosseract.PageSegMode(mode))
}
