package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisim/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Api", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("with hooks", func() {
		BeforeEach(func() {
			domain.EXPECT().NumHooks().Return(1).AnyTimes()
		})

		It("should panic if ID is not given", func() {
			domain.EXPECT().Name().Return("Domain").AnyTimes()
			Expect(func() {
				StartTask("", "123", domain, "kind", "what", nil)
			}).Should(Panic())
		})

		It("should panic if domain's name is empty", func() {
			domain.EXPECT().Name().Return("").AnyTimes()
			Expect(func() {
				StartTask("id", "123", domain, "kind", "what", nil)
			}).Should(Panic())
		})

		It("should panic if kind is empty", func() {
			domain.EXPECT().Name().Return("Domain").AnyTimes()
			Expect(func() {
				StartTask("id", "123", domain, "", "what", nil)
			}).Should(Panic())
		})

		It("should panic if what is empty", func() {
			domain.EXPECT().Name().Return("Domain").AnyTimes()
			Expect(func() {
				StartTask("id", "123", domain, "kind", "", nil)
			}).Should(Panic())
		})

		It("should invoke the hooks of the domain", func() {
			var ctxs []sim.HookCtx

			domain.EXPECT().Name().Return("Domain").AnyTimes()
			domain.EXPECT().InvokeHook(gomock.Any()).
				Do(func(ctx sim.HookCtx) { ctxs = append(ctxs, ctx) }).
				Times(3)

			StartTask("id", "parent", domain, "req_out", "write", 42)
			AddTaskStep("id", domain, "addr_accepted")
			EndTask("id", domain)

			Expect(ctxs[0].Pos).To(BeIdenticalTo(HookPosTaskStart))
			Expect(ctxs[0].Item).To(Equal(Task{
				ID:       "id",
				ParentID: "parent",
				Kind:     "req_out",
				What:     "write",
				Where:    "Domain",
				Detail:   42,
			}))
			Expect(ctxs[1].Pos).To(BeIdenticalTo(HookPosTaskStep))
			Expect(ctxs[1].Item.(Task).Steps).To(Equal(
				[]TaskStep{{What: "addr_accepted"}}))
			Expect(ctxs[2].Pos).To(BeIdenticalTo(HookPosTaskEnd))
		})
	})

	It("should panic if domain is nil", func() {
		Expect(func() {
			StartTask("id", "123", nil, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should do nothing if no one is listening", func() {
		domain.EXPECT().NumHooks().Return(0).Times(3)

		StartTask("id", "", domain, "kind", "what", nil)
		AddTaskStep("id", domain, "step")
		EndTask("id", domain)
	})
})

var _ = Describe("CollectTrace", func() {
	It("should not attach the same tracer twice", func() {
		domain := sim.NewComponentBase("Domain")
		tracer := NewStepCountTracer(AllTasks)

		CollectTrace(domain, tracer)

		Expect(domain.NumHooks()).To(Equal(1))
		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})

	It("should dispatch task events to the tracer", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		tracer := NewMockTracer(mockCtrl)
		domain := sim.NewComponentBase("Domain")
		CollectTrace(domain, tracer)

		gomock.InOrder(
			tracer.EXPECT().StartTask(gomock.Any()),
			tracer.EXPECT().StepTask(gomock.Any()),
			tracer.EXPECT().EndTask(gomock.Any()),
		)

		StartTask("id", "", domain, "req_in", "read", nil)
		AddTaskStep("id", domain, "accepted")
		EndTask("id", domain)

		mockCtrl.Finish()
	})
})
