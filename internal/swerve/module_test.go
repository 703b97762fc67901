package swerve_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/swervesim/internal/device"
	"github.com/san-kum/swervesim/internal/swerve"
)

var channels = swerve.Channels{Drive: 1, Turn: 2, Sensor: 3}

var _ = Describe("Module", func() {
	var (
		prov *fakeProvider
		ctrl *echoController
		cfg  swerve.ModuleConfig
	)

	BeforeEach(func() {
		prov = newFakeProvider()
		ctrl = &echoController{gain: 2}
		cfg = swerve.DefaultModuleConfig()
		cfg.SensorOffsetDeg = -93.5
		cfg.DriveDistancePerPulse = 0.001
	})

	Describe("New", func() {
		It("acquires and configures devices in order", func() {
			m, err := swerve.New(prov, channels, cfg, ctrl)
			Expect(err).NotTo(HaveOccurred())
			Expect(m).NotTo(BeNil())

			Expect(prov.rec.calls).To(Equal([]string{
				"provider.TranslationActuator(1)",
				"provider.RotationActuator(2)",
				"provider.AngleSensor(3)",
				"sensor.ConfigAbsoluteRange(unsigned_0_to_360)",
				"sensor.ConfigInitStrategy(boot_to_absolute)",
				"sensor.ConfigMagnetOffset(-93.5)",
				"sensor.ConfigDirection(true)",
				"sensor.SetPositionToAbsolute()",
				"turn.ConfigRemoteFeedback(3,1)",
				"turn.ConfigGains(0,0.6,0,0)",
				"drive.ConfigVoltageCompensation(10)",
				"drive.ConfigRamps(0.5,0.5)",
			}))
		})

		It("keeps its own copy of the config", func() {
			m, err := swerve.New(prov, channels, cfg, ctrl)
			Expect(err).NotTo(HaveOccurred())
			cfg.TurnKP = 99
			Expect(m.Config().TurnKP).To(Equal(0.6))
		})

		It("fails when the sensor is unreachable and releases what it holds", func() {
			prov.missing = "sensor"
			m, err := swerve.New(prov, channels, cfg, ctrl)
			Expect(m).To(BeNil())

			var initErr *swerve.DeviceInitError
			Expect(errors.As(err, &initErr)).To(BeTrue())
			Expect(initErr.Device).To(Equal("angle sensor"))
			Expect(initErr.Channel).To(Equal(3))
			Expect(err).To(MatchError(device.ErrNoDevice))

			Expect(prov.drive.closed).To(BeTrue())
			Expect(prov.turn.closed).To(BeTrue())
		})

		It("fails when the drive motor is unreachable", func() {
			prov.missing = "drive"
			_, err := swerve.New(prov, channels, cfg, ctrl)
			var initErr *swerve.DeviceInitError
			Expect(errors.As(err, &initErr)).To(BeTrue())
			Expect(initErr.Device).To(Equal("drive motor"))
			Expect(prov.rec.calls).To(HaveLen(1))
		})

		It("rejects an unusable config before touching the bus", func() {
			cfg.EncoderCPR = 0
			_, err := swerve.New(prov, channels, cfg, ctrl)
			Expect(err).To(MatchError(swerve.ErrInvalidConfig))
			Expect(prov.rec.calls).To(BeEmpty())
		})

		It("rejects a missing controller", func() {
			_, err := swerve.New(prov, channels, cfg, nil)
			Expect(err).To(HaveOccurred())
			Expect(prov.rec.calls).To(BeEmpty())
		})
	})

	Context("once constructed", func() {
		var m *swerve.Module

		BeforeEach(func() {
			var err error
			m, err = swerve.New(prov, channels, cfg, ctrl)
			Expect(err).NotTo(HaveOccurred())
			prov.rec.calls = nil
		})

		It("reports measured speed and heading", func() {
			prov.drive.velocity = 150
			prov.sensor.absolute = 270

			st := m.State()
			Expect(st.Speed).To(BeNumerically("~", 1.5, 1e-12))
			Expect(st.Angle.Degrees()).To(BeNumerically("~", -90, 1e-9))
		})

		It("degrades a failed read to zero", func() {
			prov.drive.velocity = 150
			prov.sensor.absolute = 45
			prov.drive.readErr = device.ErrStale

			st := m.State()
			Expect(st.Speed).To(BeZero())
			Expect(st.Angle.Degrees()).To(BeNumerically("~", 45, 1e-9))

			_, err := m.StateE()
			var ioErr *swerve.DeviceIOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(err).To(MatchError(device.ErrStale))
		})

		It("optimizes the target and writes both actuators", func() {
			prov.sensor.absolute = 0
			prov.drive.velocity = 50

			err := m.SetDesiredState(swerve.ModuleState{Speed: 2.0, Angle: swerve.FromDegrees(170)})
			Expect(err).NotTo(HaveOccurred())

			Expect(ctrl.setpoint).To(Equal(2.0))
			Expect(ctrl.measurement).To(BeNumerically("~", 0.5, 1e-12))
			Expect(prov.drive.volts).To(Equal(4.0))
			Expect(prov.turn.position).To(BeNumerically("~", -10.0/360*4096, 1e-9))

			cmd, ok := m.LastCommand()
			Expect(ok).To(BeTrue())
			Expect(cmd.Optimized.Angle.Degrees()).To(BeNumerically("~", -10, 1e-9))
			Expect(cmd.Heading.Degrees()).To(BeNumerically("~", 0, 1e-9))
			Expect(cmd.Volts).To(Equal(4.0))
		})

		It("passes an in-range target through", func() {
			prov.sensor.absolute = 90
			err := m.SetDesiredState(swerve.ModuleState{Speed: -1.0, Angle: swerve.FromDegrees(95)})
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.setpoint).To(Equal(-1.0))
			Expect(prov.turn.position).To(BeNumerically("~", swerve.AngleToCounts(95*math.Pi/180, 4096), 1e-9))
		})

		It("drops the cycle on a heading read failure", func() {
			prov.sensor.readErr = device.ErrTimeout
			err := m.SetDesiredState(swerve.ModuleState{Speed: 1, Angle: swerve.FromDegrees(10)})

			var ioErr *swerve.DeviceIOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("read heading"))
			Expect(prov.rec.calls).To(BeEmpty())

			_, ok := m.LastCommand()
			Expect(ok).To(BeFalse())
		})

		It("keeps the previous command when a write fails", func() {
			Expect(m.SetDesiredState(swerve.ModuleState{Speed: 1, Angle: swerve.FromDegrees(10)})).To(Succeed())
			before, _ := m.LastCommand()

			prov.turn.writeErr = device.ErrTimeout
			err := m.SetDesiredState(swerve.ModuleState{Speed: 3, Angle: swerve.FromDegrees(40)})
			Expect(err).To(MatchError(device.ErrTimeout))

			after, ok := m.LastCommand()
			Expect(ok).To(BeTrue())
			Expect(after).To(Equal(before))
		})

		It("zeroes the relative counters without moving the absolute reading", func() {
			prov.sensor.absolute = 123
			prov.sensor.position = 123

			Expect(m.ResetEncoders()).To(Succeed())
			Expect(prov.rec.calls).To(Equal([]string{
				"drive.SetPositionCounter(0)",
				"sensor.SetPosition(0)",
			}))
			Expect(prov.sensor.position).To(BeZero())
			Expect(m.State().Angle.Degrees()).To(BeNumerically("~", 123, 1e-9))
		})

		It("surfaces reset failures", func() {
			prov.sensor.writeErr = device.ErrTimeout
			err := m.ResetEncoders()
			var ioErr *swerve.DeviceIOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
		})

		It("writes PID gains to the selected motor", func() {
			Expect(m.ConfigMotorPID(swerve.TurnMotor, 1, 1, 2, 3)).To(Succeed())
			Expect(prov.turn.gains[1]).To(Equal(device.Gains{P: 1, I: 2, D: 3}))

			Expect(m.ConfigMotorPID(swerve.DriveMotor, 0, 0.1, 0, 0)).To(Succeed())
			Expect(prov.drive.gains[0]).To(Equal(device.Gains{P: 0.1}))
		})

		It("rejects an unknown motor", func() {
			err := m.ConfigMotorPID(swerve.Motor(7), 0, 1, 0, 0)
			Expect(err).To(MatchError(swerve.ErrUnknownMotor))
			Expect(prov.rec.calls).To(BeEmpty())
		})

		It("wraps a rejected gain write", func() {
			prov.drive.gainErr = errors.New("slot out of range")
			err := m.ConfigMotorPID(swerve.DriveMotor, 9, 1, 0, 0)
			var ioErr *swerve.DeviceIOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
		})

		It("closes every handle", func() {
			Expect(m.Close()).To(Succeed())
			Expect(prov.drive.closed).To(BeTrue())
			Expect(prov.turn.closed).To(BeTrue())
			Expect(prov.sensor.closed).To(BeTrue())
		})
	})
})

var _ = Describe("ParseMotor", func() {
	It("parses names", func() {
		Expect(swerve.ParseMotor("drive")).To(Equal(swerve.DriveMotor))
		Expect(swerve.ParseMotor("turn")).To(Equal(swerve.TurnMotor))
		_, err := swerve.ParseMotor("wheel")
		Expect(err).To(MatchError(swerve.ErrUnknownMotor))
	})
})
