package swerve_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/swervesim/internal/swerve"
)

var _ = Describe("Rotation", func() {
	DescribeTable("canonical form",
		func(in, want float64) {
			Expect(swerve.FromDegrees(in).Degrees()).To(BeNumerically("~", want, 1e-9))
		},
		Entry("zero", 0.0, 0.0),
		Entry("positive half turn stays", 180.0, 180.0),
		Entry("negative half turn maps to positive", -180.0, 180.0),
		Entry("past half turn wraps", 190.0, -170.0),
		Entry("whole turns removed", 725.0, 5.0),
		Entry("negative whole turns removed", -450.0, -90.0),
	)

	It("compares across the seam", func() {
		a := swerve.FromRadians(math.Pi - 1e-12)
		b := swerve.FromRadians(-math.Pi + 1e-12)
		Expect(a.Equal(b)).To(BeTrue())
		Expect(a.Equal(swerve.FromDegrees(179))).To(BeFalse())
	})

	It("adds and subtracts on the circle", func() {
		r := swerve.FromDegrees(170).Plus(swerve.FromDegrees(20))
		Expect(r.Degrees()).To(BeNumerically("~", -170, 1e-9))
		Expect(swerve.FromDegrees(-170).Minus(swerve.FromDegrees(170)).Degrees()).
			To(BeNumerically("~", 20, 1e-9))
	})
})

var _ = Describe("Optimize", func() {
	state := func(speed, deg float64) swerve.ModuleState {
		return swerve.ModuleState{Speed: speed, Angle: swerve.FromDegrees(deg)}
	}

	It("keeps the commanded heading within a quarter turn of the current one", func() {
		for _, policy := range []swerve.FlipPolicy{swerve.FlipAngleOnly, swerve.FlipReverseDrive} {
			for h := -180.0; h < 180; h += 7.5 {
				for t := -178.75; t < 180; t += 5 {
					heading := swerve.FromDegrees(h)
					out := swerve.Optimize(state(1.5, t), heading, policy)
					delta := math.Abs(out.Angle.Minus(heading).Radians())
					Expect(delta).To(BeNumerically("<=", math.Pi/2),
						"heading %g target %g policy %s", h, t, policy)
				}
			}
		}
	})

	It("returns the target untouched when already within range", func() {
		target := state(-1.0, 95)
		out := swerve.Optimize(target, swerve.FromDegrees(90), swerve.FlipAngleOnly)
		Expect(out.Speed).To(Equal(-1.0))
		Expect(out.Angle.Degrees()).To(BeNumerically("~", 95, 1e-9))
		Expect(swerve.Flipped(target, out)).To(BeFalse())
	})

	It("flips a target behind the wheel and keeps the speed", func() {
		target := state(2.0, 170)
		out := swerve.Optimize(target, swerve.FromDegrees(0), swerve.FlipAngleOnly)
		Expect(out.Speed).To(Equal(2.0))
		Expect(out.Angle.Degrees()).To(BeNumerically("~", -10, 1e-9))
		Expect(swerve.Flipped(target, out)).To(BeTrue())
	})

	It("flips in the other direction for a negative delta", func() {
		out := swerve.Optimize(state(1, -150), swerve.FromDegrees(10), swerve.FlipAngleOnly)
		Expect(out.Angle.Degrees()).To(BeNumerically("~", 30, 1e-9))
	})

	It("does not flip at exactly a quarter turn", func() {
		out := swerve.Optimize(state(1, 90), swerve.FromDegrees(0), swerve.FlipAngleOnly)
		Expect(out.Angle.Degrees()).To(BeNumerically("~", 90, 1e-9))
	})

	It("flips anything past a quarter turn, however slightly", func() {
		target := swerve.ModuleState{Speed: 1, Angle: swerve.FromRadians(math.Pi/2 + 5e-10)}
		out := swerve.Optimize(target, swerve.FromRadians(0), swerve.FlipAngleOnly)
		Expect(swerve.Flipped(target, out)).To(BeTrue())
		Expect(math.Abs(out.Angle.Radians())).To(BeNumerically("<=", math.Pi/2))
	})

	It("maps a target a half turn away onto the current heading", func() {
		out := swerve.Optimize(state(1, 180), swerve.FromDegrees(0), swerve.FlipAngleOnly)
		Expect(out.Angle.Degrees()).To(BeNumerically("~", 0, 1e-9))
		Expect(out.Speed).To(Equal(1.0))
	})

	It("negates the speed under the reverse drive policy", func() {
		out := swerve.Optimize(state(2.0, 170), swerve.FromDegrees(0), swerve.FlipReverseDrive)
		Expect(out.Speed).To(Equal(-2.0))
		Expect(out.Angle.Degrees()).To(BeNumerically("~", -10, 1e-9))

		same := swerve.Optimize(state(2.0, 30), swerve.FromDegrees(0), swerve.FlipReverseDrive)
		Expect(same.Speed).To(Equal(2.0))
	})

	DescribeTable("parsing policies",
		func(in string, want swerve.FlipPolicy, ok bool) {
			got, err := swerve.ParseFlipPolicy(in)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("empty defaults", "", swerve.FlipAngleOnly, true),
		Entry("angle only", "angle_only", swerve.FlipAngleOnly, true),
		Entry("reverse drive", "Reverse_Drive", swerve.FlipReverseDrive, true),
		Entry("garbage", "sideways", swerve.FlipAngleOnly, false),
	)
})

var _ = Describe("unit conversion", func() {
	It("converts steering angles to counts and back", func() {
		Expect(swerve.AngleToCounts(math.Pi/2, 4096)).To(BeNumerically("~", 1024, 1e-9))
		Expect(swerve.AngleToCounts(-math.Pi/18, 4096)).To(BeNumerically("~", -113.777, 1e-3))
		for _, rad := range []float64{-3, -1, 0, 0.5, 2.9} {
			Expect(swerve.CountsToAngle(swerve.AngleToCounts(rad, 4096), 4096)).To(BeNumerically("~", rad, 1e-12))
		}
	})

	It("converts drive velocity readings to speed and back", func() {
		Expect(swerve.DriveSpeed(100, 0.001)).To(BeNumerically("~", 1.0, 1e-12))
		Expect(swerve.DriveCounts(1.0, 0.001)).To(BeNumerically("~", 100, 1e-9))
		Expect(swerve.DriveCounts(1.0, 0)).To(BeZero())
	})
})
