//go:build !ocr

package ocr

import (
	"errors"
	"testing"
)

func TestConstructorsReturnError(t *testing.T) {
	constructors := map[string]func() (*Client, error){
		"New":           New,
		"NewWithConfig": func() (*Client, error) { return NewWithConfig(DigitsConfig()) },
	}
	for name, construct := range constructors {
		client, err := construct()
		if !errors.Is(err, ErrOCRNotEnabled) {
			t.Errorf("%s: expected ErrOCRNotEnabled, got %v", name, err)
		}
		if client != nil {
			t.Errorf("%s: expected nil client when OCR is disabled", name)
		}
	}
}

func TestCloseOnNilClient(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client should not error: %v", err)
	}
}

func TestStubMethodsReturnError(t *testing.T) {
	client := &Client{}
	if _, err := client.RecognizeImage(nil); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("RecognizeImage: expected ErrOCRNotEnabled, got %v", err)
	}
	if err := client.SetLanguage("eng"); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("SetLanguage: expected ErrOCRNotEnabled, got %v", err)
	}
	if err := client.SetPageSegMode(PSM_SINGLE_LINE); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("SetPageSegMode: expected ErrOCRNotEnabled, got %v", err)
	}
}
