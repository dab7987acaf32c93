package tui_test

import (
	"github.com/killallgit/deckchat/pkg/tui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("InputField", func() {
	typed := func(text string) tui.InputField {
		field := tui.NewInputField(20)
		for _, r := range text {
			field = field.InsertRune(r)
		}
		return field
	}

	It("inserts at the cursor", func() {
		field := typed("hllo").MoveLeft().MoveLeft().MoveLeft().InsertRune('e')

		Expect(field.Content).To(Equal("hello"))
		Expect(field.Cursor).To(Equal(2))
	})

	It("deletes multi-byte runes whole", func() {
		field := typed("café").DeleteBackward()

		Expect(field.Content).To(Equal("caf"))
		Expect(field.Cursor).To(Equal(3))
	})

	It("ignores backspace at the start", func() {
		field := typed("a").MoveLeft().DeleteBackward()

		Expect(field.Content).To(Equal("a"))
		Expect(field.Cursor).To(Equal(0))
	})

	It("does not move past either end", func() {
		field := typed("ab").MoveRight().MoveRight()
		Expect(field.Cursor).To(Equal(2))

		field = field.MoveLeft().MoveLeft().MoveLeft()
		Expect(field.Cursor).To(Equal(0))
	})

	It("leaves the original value untouched", func() {
		original := typed("abc")
		_ = original.DeleteBackward()

		Expect(original.Content).To(Equal("abc"))
	})

	It("clears content but keeps the width", func() {
		field := typed("abc").Clear()

		Expect(field.Content).To(BeEmpty())
		Expect(field.Width).To(Equal(20))
	})

	It("scrolls the visible window to follow the cursor", func() {
		field := tui.NewInputField(4)
		for _, r := range "abcdefg" {
			field = field.InsertRune(r)
		}

		visible, cursor := field.Visible()
		Expect(visible).To(Equal("efg"))
		Expect(cursor).To(Equal(3))
	})
})
