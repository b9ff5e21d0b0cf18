//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/daemon"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/state"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/usecase"
)

var _ = Describe("Guard", func() {
	var (
		tmpDir     string
		controller *stubController
		rc         *state.RuntimeContext
		guard      *daemon.Guard
		screens    staticScreens
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "wecomguard-guard-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(buildTemplates(filepath.Join(tmpDir, "templates"))).To(Succeed())

		screens = staticScreens{domain.Size{Width: 1920, Height: 1080}}
		controller = &stubController{present: true}
		rc = state.New(state.Options{})
		guard = daemon.NewGuard(
			daemon.DefaultGuardConfig(),
			controller,
			newLocator(tmpDir, screens),
			screens,
			rc,
			filepath.Join(tmpDir, "artifacts"),
			zap.NewNop(),
		)
	})

	AfterEach(func() {
		guard.Stop(time.Second)
		os.RemoveAll(tmpDir)
	})

	Describe("Tick", func() {
		Context("when the window is missing", func() {
			It("should record the window error and touch nothing", func() {
				controller.present = false

				guard.Tick(context.Background(), time.Now())

				snap := rc.Snapshot()
				Expect(snap.Meta.LastError).To(Equal(daemon.ErrMsgWindowNotFound))
				Expect(snap.InputCenter).To(BeNil())
				Expect(controller.Calls()).To(BeEmpty())
			})
		})

		Context("when the window is restored and not pinned", func() {
			It("should place it and cache both control centers", func() {
				now := time.Now()
				guard.Tick(context.Background(), now)

				Expect(controller.Calls()).To(Equal([]string{"maximize", "topmost"}))

				snap := rc.Snapshot()
				Expect(snap.Meta.LastError).To(BeEmpty())
				Expect(snap.InputCenter).To(Equal(&domain.Point{X: 42, Y: 156}))
				Expect(snap.SendButtonCenter).To(Equal(&domain.Point{X: 288, Y: 166}))
				Expect(snap.PhysicalScreen).To(Equal(&domain.Size{Width: 1920, Height: 1080}))
				Expect(snap.Meta.LastLocateAt).To(BeTemporally("==", now))
				Expect(snap.Meta.LastMaxTopAt).To(BeTemporally("==", now))

				artifacts := filepath.Join(tmpDir, "artifacts", "guard")
				Expect(filepath.Join(artifacts, "locate.png")).To(BeAnExistingFile())
				Expect(filepath.Join(artifacts, "locate_annotated.png")).To(BeAnExistingFile())
				Expect(snap.Meta.LastLocateAnnotated).To(Equal(filepath.Join(artifacts, "locate_annotated.png")))
			})

			It("should not relocate while cached positions are fresh", func() {
				first := time.Now()
				guard.Tick(context.Background(), first)
				guard.Tick(context.Background(), first.Add(5*time.Second))

				Expect(rc.Snapshot().Meta.LastLocateAt).To(BeTemporally("==", first))
				Expect(controller.Calls()).To(HaveLen(2))

				later := first.Add(20 * time.Second)
				guard.Tick(context.Background(), later)
				Expect(rc.Snapshot().Meta.LastLocateAt).To(BeTemporally("==", later))
			})
		})
	})

	Describe("Start and Stop", func() {
		It("should tick in the background until stopped", func() {
			Expect(guard.Start()).To(BeTrue())
			Expect(guard.Start()).To(BeFalse())
			Expect(guard.IsRunning()).To(BeTrue())

			Eventually(func() *domain.Point {
				return rc.Snapshot().SendButtonCenter
			}, 5*time.Second, 50*time.Millisecond).ShouldNot(BeNil())

			Expect(guard.Stop(2 * time.Second)).To(BeTrue())
			Expect(guard.IsRunning()).To(BeFalse())
		})
	})

	Describe("Sending with cached positions", func() {
		It("should click the centers the guard located", func() {
			guard.Tick(context.Background(), time.Now())

			input := &recordingInputter{}
			send := usecase.NewSendMessage(
				newLocator(tmpDir, screens),
				input,
				newShots(tmpDir),
				rc,
				usecase.SendMessageOptions{
					ShotDir:     filepath.Join(tmpDir, "artifacts", "send"),
					CacheMaxAge: liveMaxAge(guard),
				},
				zap.NewNop(),
			)

			result, err := send.Execute(context.Background(), "hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(input.events).To(Equal([]string{
				"click 42,156",
				"type hello",
				"click 288,166",
			}))
			Expect(result.Steps[0].Action).To(Equal(usecase.StepFocusInputCached))
			Expect(result.Screenshot).To(Equal(filepath.Join(tmpDir, "artifacts", "send", usecase.SendFinishFileName)))
			Expect(result.Screenshot).To(BeAnExistingFile())
		})

		It("should stop trusting the cache once the refresh interval is lowered", func() {
			guard.Tick(context.Background(), time.Now().Add(-10*time.Second))

			send := usecase.NewSendMessage(
				newLocator(tmpDir, screens),
				&recordingInputter{},
				newShots(tmpDir),
				rc,
				usecase.SendMessageOptions{
					ShotDir:     filepath.Join(tmpDir, "artifacts", "send"),
					CacheMaxAge: liveMaxAge(guard),
				},
				zap.NewNop(),
			)

			result, err := send.Execute(context.Background(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps[0].Action).To(Equal(usecase.StepFocusInputCached))

			refresh := 5 * time.Second
			guard.UpdateConfig(daemon.GuardConfigUpdate{LocateRefreshInterval: &refresh})

			result, err = send.Execute(context.Background(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps[0].Action).To(Equal(usecase.StepLocateInput))
		})

		It("should locate afresh when nothing is cached", func() {
			input := &recordingInputter{}
			send := usecase.NewSendMessage(
				newLocator(tmpDir, screens),
				input,
				newShots(tmpDir),
				rc,
				usecase.SendMessageOptions{ShotDir: filepath.Join(tmpDir, "artifacts", "send")},
				zap.NewNop(),
			)

			_, err := send.Execute(context.Background(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(input.events).To(Equal([]string{"click 42,156", "click 288,166"}))
			Expect(rc.Snapshot().InputCenter).To(Equal(&domain.Point{X: 42, Y: 156}))
		})
	})
})

// liveMaxAge bounds the send cache by the guard's current refresh interval.
func liveMaxAge(g *daemon.Guard) func() time.Duration {
	return func() time.Duration { return g.Config().LocateRefreshInterval }
}
