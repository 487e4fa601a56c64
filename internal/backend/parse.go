package backend

import (
	"github.com/tidwall/gjson"
)

// Record is one transcript entry as returned by either history endpoint.
type Record struct {
	Role string
	Text string
}

// parseStart extracts the session triple. thread_id wins over the older
// conversation_id spelling.
func parseStart(body []byte) *StartResponse {
	res := gjson.ParseBytes(body)
	threadID := res.Get("thread_id").String()
	if threadID == "" {
		threadID = res.Get("conversation_id").String()
	}
	return &StartResponse{
		ThreadID:      threadID,
		AssistantID:   res.Get("assistant_id").String(),
		VectorStoreID: res.Get("vector_store_id").String(),
	}
}

// parseAssistantIDs accepts ["a1", ...], [{"id":"a1"}, ...], or either of
// those wrapped as {"data": [...]} / {"assistants": [...]}.
func parseAssistantIDs(body []byte) []string {
	res := gjson.ParseBytes(body)
	if res.IsObject() {
		for _, key := range []string{"data", "assistants", "response"} {
			if v := res.Get(key); v.IsArray() {
				res = v
				break
			}
		}
	}
	if !res.IsArray() {
		return nil
	}

	var ids []string
	res.ForEach(func(_, v gjson.Result) bool {
		var id string
		if v.IsObject() {
			id = v.Get("id").String()
		} else {
			id = v.String()
		}
		if id != "" {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// parseThreadHistory maps data[] records, taking the first content block's
// text value (missing -> ""). ok is false when the body has no data array.
func parseThreadHistory(body []byte) (records []Record, ok bool) {
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, false
	}
	records = []Record{}
	data.ForEach(func(_, v gjson.Result) bool {
		records = append(records, Record{
			Role: v.Get("role").String(),
			Text: v.Get("content.0.text.value").String(),
		})
		return true
	})
	return records, true
}

// parseSimpleHistory maps data[] records of the {role, content} form.
func parseSimpleHistory(body []byte) (records []Record, ok bool) {
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, false
	}
	records = []Record{}
	data.ForEach(func(_, v gjson.Result) bool {
		records = append(records, Record{
			Role: v.Get("role").String(),
			Text: v.Get("content").String(),
		})
		return true
	})
	return records, true
}

// stringField returns a top-level string field, "" when absent or malformed.
func stringField(body []byte, name string) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, name).String()
}
