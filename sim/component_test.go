package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComponentBase", func() {
	It("should set and get name", func() {
		component := NewComponentBase("Platform.Slave")
		Expect(component.Name()).To(Equal("Platform.Slave"))
	})

	It("should reject invalid names", func() {
		Expect(func() { NewComponentBase("slave") }).To(Panic())
	})

	It("should invoke hooks in registration order", func() {
		component := NewComponentBase("Comp")
		var order []string

		component.AcceptHook(NewHookFunc(func(ctx HookCtx) {
			order = append(order, "first:"+ctx.Pos.Name)
		}))
		component.AcceptHook(NewHookFunc(func(ctx HookCtx) {
			order = append(order, "second:"+ctx.Pos.Name)
		}))
		component.InvokeHook(HookCtx{Domain: component, Pos: HookPosBeforeEvent})

		Expect(component.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]string{
			"first:BeforeEvent", "second:BeforeEvent",
		}))
	})

	It("should not accept the same hook twice", func() {
		component := NewComponentBase("Comp")
		hook := NewHookFunc(func(HookCtx) {})

		component.AcceptHook(hook)

		Expect(func() { component.AcceptHook(hook) }).To(Panic())
	})
})
