package client

import (
	"context"
	"fmt"
)

// ChatService handles conversation calls
type ChatService struct {
	client *Client
}

// ChatRequest is a message to a character. An empty Character means the default.
type ChatRequest struct {
	User      string `json:"user"`
	Character string `json:"character,omitempty"`
}

// SpeakRequest asks for text to be read aloud
type SpeakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// Send sends one message and returns the character's reply
func (s *ChatService) Send(ctx context.Context, req ChatRequest) (*Reply, error) {
	var reply Reply
	if err := s.client.doRequest(ctx, "POST", "/chat", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Characters lists the catalogue
func (s *ChatService) Characters(ctx context.Context) ([]Character, error) {
	var chars []Character
	if err := s.client.doRequest(ctx, "GET", "/characters", nil, &chars); err != nil {
		return nil, err
	}
	return chars, nil
}

// Speak synthesizes speech
func (s *ChatService) Speak(ctx context.Context, req SpeakRequest) (*Audio, error) {
	httpReq, err := s.client.newRequest(ctx, "POST", "/tts", req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "audio/mpeg")

	data, resp, err := s.client.send(httpReq)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio response")
	}
	return &Audio{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
