package toolserver_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/claudeapi/pkg/chat"
	"github.com/papercomputeco/claudeapi/pkg/conversation"
	"github.com/papercomputeco/claudeapi/pkg/gateway"
	"github.com/papercomputeco/claudeapi/pkg/llm"
	"github.com/papercomputeco/claudeapi/pkg/models"
	"github.com/papercomputeco/claudeapi/toolserver"
)

type replyGateway struct {
	err   error
	calls []gateway.Call
}

func (g *replyGateway) Complete(_ context.Context, call gateway.Call) (*llm.GenerationResult, error) {
	g.calls = append(g.calls, call)
	if g.err != nil {
		return nil, g.err
	}
	return &llm.GenerationResult{Text: "Hi from Claude", ModelUsed: call.Model}, nil
}

var _ = Describe("Tool server", func() {
	var (
		ctx     context.Context
		store   *conversation.MemoryStore
		gw      *replyGateway
		session *mcp.ClientSession
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = conversation.NewMemoryStore()
		gw = &replyGateway{}

		catalog, err := models.NewCatalog([]models.Descriptor{{ID: "m1", DisplayName: "Model One"}}, "m1")
		Expect(err).NotTo(HaveOccurred())
		service := chat.NewService(store, catalog, gw, zap.NewNop(), nil)
		srv := toolserver.New(service, "test", zap.NewNop())

		serverTransport, clientTransport := mcp.NewInMemoryTransports()
		serverSession, err := srv.Connect(ctx, serverTransport)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(serverSession.Close)

		client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
		session, err = client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(session.Close)
	})

	call := func(name string, args map[string]any) (string, bool) {
		if args == nil {
			args = map[string]any{}
		}
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Content).To(HaveLen(1))
		text, ok := res.Content[0].(*mcp.TextContent)
		Expect(ok).To(BeTrue())
		return text.Text, res.IsError
	}

	It("lists the five tools", func() {
		res, err := session.ListTools(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		names := make([]string, 0, len(res.Tools))
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		Expect(names).To(ConsistOf(
			"query_claude",
			"clear_conversation",
			"get_conversation_history",
			"list_conversations",
			"list_available_models",
		))
	})

	Describe("query_claude", func() {
		It("returns the reply text and records the exchange", func() {
			text, isError := call("query_claude", map[string]any{"prompt": "hello", "conversation_id": "c1"})
			Expect(isError).To(BeFalse())
			Expect(text).To(Equal("Hi from Claude"))

			turns, _, err := store.Get(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(Equal([]llm.Turn{llm.UserTurn("hello"), llm.AssistantTurn("Hi from Claude")}))
		})

		It("applies the same defaults as the HTTP surface", func() {
			_, _ = call("query_claude", map[string]any{"prompt": "hello", "model": "unknown"})

			Expect(gw.calls).To(HaveLen(1))
			Expect(gw.calls[0].Model).To(Equal("m1"))
			Expect(gw.calls[0].Temperature).To(Equal(0.7))
			Expect(gw.calls[0].MaxTokens).To(Equal(4096))

			ids, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"default"}))
		})

		It("returns gateway failures as text", func() {
			gw.err = &gateway.Error{Err: errors.New("connection refused")}

			text, isError := call("query_claude", map[string]any{"prompt": "hello"})
			Expect(isError).To(BeTrue())
			Expect(text).To(Equal("Error querying Claude API: connection refused"))

			ids, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})

		It("returns out-of-range parameters as text without calling the gateway", func() {
			text, isError := call("query_claude", map[string]any{"prompt": "hello", "temperature": 3})
			Expect(isError).To(BeTrue())
			Expect(text).To(HavePrefix("Error querying Claude API: "))
			Expect(text).To(ContainSubstring("temperature"))
			Expect(gw.calls).To(BeEmpty())
		})
	})

	Describe("malformed arguments", func() {
		DescribeTable("query_claude answers with error text instead of a protocol fault",
			func(args map[string]any, field string) {
				text, isError := call("query_claude", args)
				Expect(isError).To(BeTrue())
				Expect(text).To(HavePrefix("Error querying Claude API: "))
				Expect(text).To(ContainSubstring(field))
				Expect(gw.calls).To(BeEmpty())

				ids, err := store.List(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(ids).To(BeEmpty())
			},
			Entry("no arguments", map[string]any{}, "prompt"),
			Entry("string max_tokens", map[string]any{"prompt": "hi", "max_tokens": "lots"}, "max_tokens"),
			Entry("fractional max_tokens", map[string]any{"prompt": "hi", "max_tokens": 12.5}, "max_tokens"),
			Entry("string temperature", map[string]any{"prompt": "hi", "temperature": "warm"}, "temperature"),
			Entry("null temperature", map[string]any{"prompt": "hi", "temperature": nil}, "temperature"),
			Entry("numeric prompt", map[string]any{"prompt": 7}, "prompt"),
		)

		It("answers a wrongly typed conversation id with error text", func() {
			text, isError := call("clear_conversation", map[string]any{"conversation_id": 42})
			Expect(isError).To(BeTrue())
			Expect(text).To(HavePrefix("Error clearing conversation: "))
		})

		It("still advertises the query parameters", func() {
			res, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			for _, tool := range res.Tools {
				if tool.Name != "query_claude" {
					continue
				}
				schema, err := json.Marshal(tool.InputSchema)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(schema)).To(ContainSubstring(`"prompt"`))
				Expect(string(schema)).To(ContainSubstring(`"max_tokens"`))
				return
			}
			Fail("query_claude is not listed")
		})
	})

	Describe("get_conversation_history", func() {
		It("returns an empty JSON list for an unknown conversation", func() {
			text, isError := call("get_conversation_history", map[string]any{"conversation_id": "never-seen"})
			Expect(isError).To(BeFalse())
			Expect(text).To(Equal("[]"))

			ids, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})

		It("returns the turns as indented JSON", func() {
			Expect(store.Append(ctx, "default", llm.UserTurn("hi"), llm.AssistantTurn("hello"))).To(Succeed())

			text, _ := call("get_conversation_history", nil)

			var turns []llm.Turn
			Expect(json.Unmarshal([]byte(text), &turns)).To(Succeed())
			Expect(turns).To(Equal([]llm.Turn{llm.UserTurn("hi"), llm.AssistantTurn("hello")}))
			Expect(text).To(ContainSubstring("\n  {"))
		})
	})

	Describe("clear_conversation", func() {
		It("clears an existing conversation", func() {
			Expect(store.Append(ctx, "c1", llm.UserTurn("hi"))).To(Succeed())

			text, isError := call("clear_conversation", map[string]any{"conversation_id": "c1"})
			Expect(isError).To(BeFalse())
			Expect(text).To(Equal("Conversation c1 cleared successfully"))

			turns, found, err := store.Get(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(turns).To(BeEmpty())
		})

		It("reports an unknown conversation as text", func() {
			text, isError := call("clear_conversation", map[string]any{"conversation_id": "never-seen"})
			Expect(isError).To(BeFalse())
			Expect(text).To(Equal("Conversation never-seen not found"))

			ids, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})
	})

	Describe("list_conversations", func() {
		It("reports when there are none", func() {
			text, _ := call("list_conversations", nil)
			Expect(text).To(Equal("No conversations found"))
		})

		It("lists ids as JSON", func() {
			Expect(store.Append(ctx, "a", llm.UserTurn("x"))).To(Succeed())
			Expect(store.Append(ctx, "b", llm.UserTurn("y"))).To(Succeed())

			text, _ := call("list_conversations", nil)

			var ids []string
			Expect(json.Unmarshal([]byte(text), &ids)).To(Succeed())
			Expect(ids).To(Equal([]string{"a", "b"}))
		})
	})

	Describe("list_available_models", func() {
		It("returns the catalog as JSON", func() {
			text, _ := call("list_available_models", nil)
			Expect(text).To(MatchJSON(`{"m1": "Model One"}`))
		})
	})
})
