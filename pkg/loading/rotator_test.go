package loading_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/killallgit/deckchat/pkg/loading"
)

type published struct {
	mu      sync.Mutex
	indexes []int
}

func (p *published) add(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexes = append(p.indexes, i)
}

func (p *published) get() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.indexes...)
}

var _ = Describe("Message", func() {
	It("should be deterministic", func() {
		Expect(loading.Message(2)).To(Equal(loading.Message(2)))
	})

	It("should cycle through the list", func() {
		n := loading.MessageCount()
		Expect(n).To(BeNumerically(">", 1))
		Expect(loading.Message(n)).To(Equal(loading.Message(0)))
		Expect(loading.Message(n + 1)).To(Equal(loading.Message(1)))
		Expect(loading.Message(0)).NotTo(Equal(loading.Message(1)))
	})

	It("should format tool status", func() {
		Expect(loading.ToolStatus("search")).To(Equal("Querying search..."))
	})
})

var _ = Describe("Rotator", func() {
	var p *published

	BeforeEach(func() {
		p = &published{}
	})

	It("should publish index 0 synchronously on start", func() {
		r := loading.NewRotator(time.Hour, p.add)
		r.Start()
		defer r.Stop()

		Expect(p.get()).To(Equal([]int{0}))
		Expect(r.Running()).To(BeTrue())
	})

	It("should advance on every tick", func() {
		r := loading.NewRotator(10*time.Millisecond, p.add)
		r.Start()
		defer r.Stop()

		Eventually(p.get).Should(HaveLen(3))
		Expect(p.get()[:3]).To(Equal([]int{0, 1, 2}))
	})

	It("should stop publishing after stop", func() {
		r := loading.NewRotator(10*time.Millisecond, p.add)
		r.Start()
		Eventually(p.get).Should(HaveLen(2))

		r.Stop()
		count := len(p.get())
		Consistently(func() int { return len(p.get()) }, 60*time.Millisecond, 10*time.Millisecond).Should(Equal(count))
		Expect(r.Running()).To(BeFalse())
	})

	It("should tolerate repeated stops", func() {
		r := loading.NewRotator(10*time.Millisecond, p.add)
		r.Start()
		Expect(func() {
			r.Stop()
			r.Stop()
		}).NotTo(Panic())
	})

	It("should ignore a second start", func() {
		r := loading.NewRotator(time.Hour, p.add)
		r.Start()
		r.Start()
		defer r.Stop()

		Expect(p.get()).To(Equal([]int{0}))
	})

	It("should not start once stopped", func() {
		r := loading.NewRotator(10*time.Millisecond, p.add)
		r.Stop()
		r.Start()

		Consistently(p.get, 40*time.Millisecond, 10*time.Millisecond).Should(BeEmpty())
	})
})
