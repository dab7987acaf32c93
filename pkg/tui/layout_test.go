package tui_test

import (
	"github.com/killallgit/deckchat/pkg/tui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Rect", func() {
	It("reports its edges", func() {
		rect := tui.NewRect(10, 20, 30, 40)

		Expect(rect.Right()).To(Equal(40))
		Expect(rect.Bottom()).To(Equal(60))
	})

	It("contains points inside its bounds only", func() {
		rect := tui.NewRect(10, 20, 30, 40)

		Expect(rect.Contains(10, 20)).To(BeTrue())
		Expect(rect.Contains(39, 59)).To(BeTrue())
		Expect(rect.Contains(40, 20)).To(BeFalse())
		Expect(rect.Contains(10, 19)).To(BeFalse())
	})
})

var _ = Describe("Layout", func() {
	It("stacks messages, alert, input and status", func() {
		messages, alert, input, status := tui.NewLayout(80, 24).CalculateAreas()

		Expect(status).To(Equal(tui.NewRect(0, 23, 80, 1)))
		Expect(input).To(Equal(tui.NewRect(0, 20, 80, 3)))
		Expect(alert).To(Equal(tui.NewRect(0, 19, 80, 1)))
		Expect(messages).To(Equal(tui.NewRect(0, 0, 80, 19)))
	})

	It("never produces a negative message area", func() {
		messages, _, _, _ := tui.NewLayout(10, 3).CalculateAreas()

		Expect(messages.Height).To(Equal(0))
	})
})

var _ = Describe("WrapText", func() {
	It("returns nothing for empty text or width", func() {
		Expect(tui.WrapText("", 10)).To(BeEmpty())
		Expect(tui.WrapText("hello", 0)).To(BeEmpty())
	})

	It("breaks on spaces", func() {
		Expect(tui.WrapText("the quick brown fox", 10)).To(Equal([]string{"the quick", "brown fox"}))
	})

	It("hard-breaks words longer than the width", func() {
		Expect(tui.WrapText("abcdefghij", 4)).To(Equal([]string{"abcd", "efgh", "ij"}))
	})

	It("keeps embedded newlines", func() {
		Expect(tui.WrapText("one\n\ntwo", 10)).To(Equal([]string{"one", "", "two"}))
	})

	It("counts runes rather than bytes", func() {
		Expect(tui.WrapText("ünïcödé", 7)).To(Equal([]string{"ünïcödé"}))
	})
})

var _ = Describe("VisibleLines", func() {
	lines := []string{"1", "2", "3", "4", "5"}

	It("shows the tail when not scrolled", func() {
		Expect(tui.VisibleLines(lines, 2, 0)).To(Equal([]string{"4", "5"}))
	})

	It("scrolls up from the bottom", func() {
		Expect(tui.VisibleLines(lines, 2, 2)).To(Equal([]string{"2", "3"}))
	})

	It("clamps scrolling at the top", func() {
		Expect(tui.VisibleLines(lines, 2, 99)).To(Equal([]string{"1", "2"}))
	})

	It("shows everything when it fits", func() {
		Expect(tui.VisibleLines(lines, 10, 3)).To(Equal(lines))
	})
})

var _ = Describe("FormatSlideNumbers", func() {
	It("renders 1-based numbers", func() {
		Expect(tui.FormatSlideNumbers([]int{0, 2})).To(Equal("1,3"))
	})
})
