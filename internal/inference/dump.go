package inference

import (
	"encoding/json"
	"time"
)

type exchange struct {
	Time         time.Time `json:"time"`
	Model        string    `json:"model"`
	Prompt       string    `json:"prompt"`
	Reply        string    `json:"reply"`
	FinishReason string    `json:"finish_reason,omitempty"`
	ElapsedMS    int64     `json:"elapsed_ms"`
}

func (c *Client) writeDump(ex exchange) {
	if c.dump == nil {
		return
	}
	ex.Time = time.Now().UTC()
	b, err := json.Marshal(ex)
	if err != nil {
		return
	}
	c.dumpMu.Lock()
	defer c.dumpMu.Unlock()
	_, _ = c.dump.Write(append(b, '\n'))
}
