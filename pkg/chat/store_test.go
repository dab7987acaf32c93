package chat_test

import (
	"sync"

	"github.com/killallgit/deckchat/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var store *chat.Store

	BeforeEach(func() {
		store = chat.NewStore()
	})

	It("should start empty", func() {
		Expect(store.Len()).To(Equal(0))
		Expect(store.Snapshot()).To(BeEmpty())
		_, ok := store.Last()
		Expect(ok).To(BeFalse())
	})

	It("should keep entries in append order", func() {
		store.Append(chat.NewUserMessage("a"))
		store.Append(chat.NewToolCallMessage("search", nil))
		store.Append(chat.NewToolResultMessage("search", "X"))

		snapshot := store.Snapshot()
		Expect(snapshot).To(HaveLen(3))
		Expect(snapshot[0].Role).To(Equal(chat.RoleUser))
		Expect(snapshot[1].HasToolCall()).To(BeTrue())
		Expect(snapshot[2].ToolCallID).To(Equal("search"))

		last, ok := store.Last()
		Expect(ok).To(BeTrue())
		Expect(last.Content).To(Equal("X"))
	})

	It("should hand out copies", func() {
		store.Append(chat.NewUserMessage("original"))

		snapshot := store.Snapshot()
		snapshot[0].Content = "mutated"

		Expect(store.Snapshot()[0].Content).To(Equal("original"))
	})

	It("should replace everything on ReplaceAll", func() {
		store.Append(chat.NewUserMessage("optimistic"))

		history := []chat.Message{chat.NewUserMessage("old"), chat.NewAssistantMessage("reply")}
		store.ReplaceAll(history)
		history[0].Content = "changed by caller"

		Expect(store.Len()).To(Equal(2))
		Expect(store.Snapshot()[0].Content).To(Equal("old"))

		store.ReplaceAll(nil)
		Expect(store.Len()).To(Equal(0))
	})

	It("should accept concurrent appends", func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				store.Append(chat.NewAssistantMessage("x"))
			}()
		}
		wg.Wait()

		Expect(store.Len()).To(Equal(50))
	})
})
