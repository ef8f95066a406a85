package adapter

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/visitbench/visitbench/visit"
)

// chatChunk mirrors the OpenAI-compatible chat-completion streaming chunk
// shape shared by openai/vllm/tgi (spec.md §6): one choice per chunk, a
// delta carrying role/content, an optional finish_reason.
type chatChunk struct {
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// legacyChunk mirrors the legacy completion streaming chunk shape.
type legacyChunk struct {
	Choices []struct {
		Index        int     `json:"index"`
		Text         string  `json:"text"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// ScanSSELines reads a response body as newline-delimited SSE frames,
// parsing each "data: ..." line as a chat or legacy completion chunk and
// sending the resulting ResPieces on out. The "[DONE]" sentinel, a piece
// carrying a stop reason, and a closed/EOF'd reader all end the scan
// normally. A malformed JSON payload
// on a single frame is logged and skipped; the stream continues (spec.md
// §7: protocol errors are per-frame, not fatal).
//
// Grounded verbatim on the teacher's own cmd/observe.go
// RealClient.handleStreamingResponse.
func ScanSSELines(body io.Reader, legacy bool, out chan<- StreamItem) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return
		}

		if legacy {
			var chunk legacyChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				logrus.WithError(err).Debug("adapter: skipping malformed legacy SSE frame")
				continue
			}
			for _, c := range chunk.Choices {
				piece := visit.ResPiece{Index: c.Index, Stop: c.FinishReason}
				if c.Text != "" {
					text := c.Text
					piece.Content = &text
				}
				out <- StreamItem{Piece: piece}
				if piece.Stop != nil {
					return
				}
			}
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logrus.WithError(err).Debug("adapter: skipping malformed chat SSE frame")
			continue
		}
		for _, c := range chunk.Choices {
			piece := visit.ResPiece{Index: c.Index, Stop: c.FinishReason}
			if c.Delta.Role != "" {
				role := visit.Role(c.Delta.Role)
				piece.Role = &role
			}
			if c.Delta.Content != "" {
				content := c.Delta.Content
				piece.Content = &content
			}
			out <- StreamItem{Piece: piece}
			if piece.Stop != nil {
				return
			}
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		out <- StreamItem{Err: err}
	}
}
