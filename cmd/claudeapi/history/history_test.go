package historycmder

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/claudeapi/api"
	"github.com/papercomputeco/claudeapi/pkg/chat"
	"github.com/papercomputeco/claudeapi/pkg/conversation"
	"github.com/papercomputeco/claudeapi/pkg/gateway"
	"github.com/papercomputeco/claudeapi/pkg/llm"
	"github.com/papercomputeco/claudeapi/pkg/models"
)

type unusedGateway struct{}

func (unusedGateway) Complete(context.Context, gateway.Call) (*llm.GenerationResult, error) {
	return nil, &gateway.Error{Err: context.Canceled}
}

var _ = Describe("History Command", func() {
	var (
		ctx       context.Context
		store     *conversation.MemoryStore
		serverURL string
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = conversation.NewMemoryStore()
		service := chat.NewService(store, models.NewBuiltinCatalog(), unusedGateway{}, zap.NewNop(), nil)

		srv, err := api.NewServer(api.Config{ListenAddr: ":0"}, service, nil, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		go func() {
			_ = srv.Serve(listener)
		}()
		DeferCleanup(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})

		serverURL = "http://" + listener.Addr().String()
	})

	execute := func(args ...string) (string, error) {
		if args == nil {
			args = []string{}
		}
		cmd := NewHistoryCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("lists conversations when no id is given", func() {
		Expect(store.Append(ctx, "alpha", llm.UserTurn("x"))).To(Succeed())
		Expect(store.Append(ctx, "beta", llm.UserTurn("y"))).To(Succeed())

		out, err := execute(serverURL)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("alpha\nbeta\n"))
	})

	It("reports an empty listing", func() {
		out, err := execute(serverURL + "/")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No conversations found"))
	})

	It("renders the turns of a conversation", func() {
		Expect(store.Append(ctx, "c1",
			llm.UserTurn("What is Go?"),
			llm.AssistantTurn("A programming language."),
		)).To(Succeed())

		out, err := execute("--style", "notty", "--width", "60", serverURL, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("User"))
		Expect(out).To(ContainSubstring("What is Go?"))
		Expect(out).To(ContainSubstring("Assistant"))
		Expect(out).To(ContainSubstring("A programming language."))
	})

	It("escapes conversation ids in the request path", func() {
		Expect(store.Append(ctx, "needs escaping", llm.UserTurn("hello"))).To(Succeed())

		out, err := execute("--raw", serverURL, "needs escaping")
		Expect(err).NotTo(HaveOccurred())

		var resp api.ConversationResponse
		Expect(json.Unmarshal([]byte(out), &resp)).To(Succeed())
		Expect(resp.Conversation).To(Equal([]llm.Turn{llm.UserTurn("hello")}))
	})

	It("prints raw JSON with --raw", func() {
		Expect(store.Append(ctx, "c1", llm.UserTurn("hi"))).To(Succeed())

		out, err := execute("--raw", serverURL, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchJSON(`{"conversation":[{"role":"user","content":"hi"}]}`))
	})

	It("says so when a conversation was cleared", func() {
		Expect(store.Append(ctx, "c1", llm.UserTurn("hi"))).To(Succeed())
		_, err := store.Clear(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())

		out, err := execute(serverURL, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Conversation c1 is empty"))
	})

	It("surfaces the server's not-found detail", func() {
		_, err := execute(serverURL, "never-seen")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("404"))
		Expect(err.Error()).To(ContainSubstring("Conversation never-seen not found"))
	})

	It("requires a server url", func() {
		_, err := execute()
		Expect(err).To(HaveOccurred())
	})
})
