package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xilidan/meetings/services/meetings/entity"
)

type IngestRequest struct {
	Title    string `json:"title"`
	Source   string `json:"source,omitempty"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mime_type"`
	Audio    []byte `json:"audio"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type ListRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListResponse struct {
	Meetings []*entity.Meeting `json:"meetings"`
}

type ExportResponse struct {
	Tasks []entity.TaskSummary `json:"tasks"`
}

// Encode converts v to a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("message is not a JSON object: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return s, nil
}

// Decode fills v from s through its JSON form.
func Decode(s *structpb.Struct, v any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
