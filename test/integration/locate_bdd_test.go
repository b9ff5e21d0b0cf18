//go:build integration

package integration

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
)

var _ = Describe("Locator", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "wecomguard-locate-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(buildTemplates(filepath.Join(tmpDir, "templates"))).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("when the screen matches a template folder", func() {
		It("should find the input box by its Chinese name", func() {
			locator := newLocator(tmpDir, staticScreens{domain.Size{Width: 1920, Height: 1080}})

			res := locator.Locate("消息输入框")
			Expect(res.OK()).To(BeTrue(), "failure: %v", res.Err())
			Expect(*res.BBox).To(Equal(domain.BBox{X: inputX, Y: inputY, Width: 24, Height: 12}))
			Expect(res.Resolution).To(Equal(domain.Size{Width: 1920, Height: 1080}))
			Expect(res.TemplatePath).To(HaveSuffix(filepath.Join("1920x1080", "input_box.png")))
			Expect(res.ScreenshotPath).To(BeAnExistingFile())

			center, ok := res.Center()
			Expect(ok).To(BeTrue())
			Expect(center).To(Equal(domain.Point{X: 42, Y: 156}))
		})

		It("should locate both controls from one annotated screenshot", func() {
			locator := newLocator(tmpDir, staticScreens{domain.Size{Width: 1920, Height: 1080}})
			shot := filepath.Join(tmpDir, "out", "batch.png")
			annotated := filepath.Join(tmpDir, "out", "batch_annotated.png")

			results := locator.LocateMany(
				[]string{position.TargetInputBox, position.TargetSendButton},
				shot, annotated)

			input, send := results[position.TargetInputBox], results[position.TargetSendButton]
			Expect(input.OK()).To(BeTrue())
			Expect(send.OK()).To(BeTrue(), "failure: %v", send.Err())
			Expect(*send.BBox).To(Equal(domain.BBox{X: sendX, Y: sendY, Width: 16, Height: 12}))
			Expect(input.ScreenshotPath).To(Equal(send.ScreenshotPath))
			Expect(shot).To(BeAnExistingFile())
			Expect(annotated).To(BeAnExistingFile())
			Expect(send.AnnotatedPath).To(Equal(annotated))
		})
	})

	Context("when the screen is closer to another folder", func() {
		It("should use the nearest folder and report no match with a score", func() {
			locator := newLocator(tmpDir, staticScreens{domain.Size{Width: 1366, Height: 768}})

			res := locator.Locate(position.TargetSendButton)
			Expect(res.OK()).To(BeFalse())
			Expect(res.TemplatePath).To(ContainSubstring("1280x720"))
			Expect(res.FailureReason).To(Equal(domain.ReasonNoMatch))
			Expect(res.Err()).To(MatchError(domain.ErrNoMatch))
		})
	})

	Context("when no template exists for the target", func() {
		It("should fail without taking a screenshot", func() {
			locator := newLocator(tmpDir, staticScreens{domain.Size{Width: 1920, Height: 1080}})

			res := locator.Locate("emoji_button")
			Expect(res.FailureReason).To(Equal(domain.ReasonTemplateNotFound))
			Expect(res.ScreenshotPath).To(BeEmpty())
			Expect(filepath.Join(tmpDir, "shots")).NotTo(BeADirectory())
		})
	})
})
