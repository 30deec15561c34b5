package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loomcli/loom/pkg/chat"
	"github.com/loomcli/loom/pkg/client"
)

func sseHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}
}

func collect(events <-chan client.StreamEvent) ([]string, []error) {
	var payloads []string
	var errs []error
	for ev := range events {
		if ev.Err != nil {
			errs = append(errs, ev.Err)
			continue
		}
		payloads = append(payloads, string(ev.Data))
	}
	return payloads, errs
}

var _ = Describe("CreateMessageStream", func() {
	var server *httptest.Server

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("yields each data payload in order", func() {
		server = httptest.NewServer(sseHandler(
			`data: {"message_type":"assistant_message","content":"one"}`,
			"",
			`data: {"message_type":"assistant_message","content":"two"}`,
			"",
			`data: {"message_type":"stop_reason","stop_reason":"end_turn"}`,
		))
		c := client.New(server.URL, "")

		events, err := c.CreateMessageStream(context.Background(), "agent-1", client.NewTurnRequest("hi", nil))
		Expect(err).ToNot(HaveOccurred())

		payloads, errs := collect(events)
		Expect(errs).To(BeEmpty())
		Expect(payloads).To(HaveLen(3))
		Expect(payloads[0]).To(ContainSubstring("one"))
		Expect(payloads[2]).To(ContainSubstring("stop_reason"))
	})

	It("skips comments, event names and blank lines", func() {
		server = httptest.NewServer(sseHandler(
			": keepalive comment",
			"event: message",
			"",
			`data: {"message_type":"ping"}`,
		))
		c := client.New(server.URL, "")

		events, err := c.CreateMessageStream(context.Background(), "agent-1", client.NewTurnRequest("hi", nil))
		Expect(err).ToNot(HaveOccurred())

		payloads, errs := collect(events)
		Expect(errs).To(BeEmpty())
		Expect(payloads).To(HaveLen(1))
	})

	It("terminates on the DONE sentinel", func() {
		server = httptest.NewServer(sseHandler(
			`data: {"message_type":"assistant_message","content":"before"}`,
			"data: [DONE]",
			`data: {"message_type":"assistant_message","content":"after"}`,
		))
		c := client.New(server.URL, "")

		events, err := c.CreateMessageStream(context.Background(), "agent-1", client.NewTurnRequest("hi", nil))
		Expect(err).ToNot(HaveOccurred())

		payloads, _ := collect(events)
		Expect(payloads).To(HaveLen(1))
		Expect(payloads[0]).To(ContainSubstring("before"))
	})

	It("rejects non-2xx responses before opening the channel", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"agent not found"}`))
		}))
		c := client.New(server.URL, "")

		_, err := c.CreateMessageStream(context.Background(), "missing", client.NewTurnRequest("hi", nil))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("agent not found"))
	})

	It("hits the resume endpoint with the sequence offset", func() {
		var gotPath, gotQuery string
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			sseHandler("data: [DONE]")(w, r)
		}))
		c := client.New(server.URL, "")

		events, err := c.ResumeMessageStream(context.Background(), "run-7", 42)
		Expect(err).ToNot(HaveOccurred())
		collect(events)

		Expect(gotPath).To(Equal("/v1/runs/run-7/stream"))
		Expect(gotQuery).To(Equal("starting_after=42"))
	})
})

var _ = Describe("NewTurnRequest", func() {
	It("wraps text in a single user message part", func() {
		req := client.NewTurnRequest("hello", nil)
		Expect(req.Messages).To(HaveLen(1))
		Expect(req.Messages[0].Role).To(Equal(chat.RoleUser))
		Expect(req.Messages[0].Content).To(HaveLen(1))
		Expect(req.Messages[0].Content[0].Text).To(Equal("hello"))
	})

	It("appends image attachments after the text part", func() {
		req := client.NewTurnRequest("see this", []chat.ContentPart{
			{Type: "image", ImageData: "aGk=", MediaType: "image/png"},
		})
		Expect(req.Messages[0].Content).To(HaveLen(2))
		Expect(req.Messages[0].Content[1].Type).To(Equal("image"))
	})
})
