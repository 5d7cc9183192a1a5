package board

// GPIO assignments. Plain numbers so host code and tests can use them; the
// platform layer maps them to machine.Pin.
var OutPins = [NumOutputs]int{3, 2, 4, 5, 8, 9}

var RGBPins = [3]int{13, 14, 15}

const (
	NumOutputs = 6

	I2CSDAPin = 16
	I2CSCLPin = 17
	I2CFreqHz = 100_000

	I2SDataPin  = 18
	I2SBClkPin  = 19
	I2SLRClkPin = 20
	AmpEnPin    = 21

	UserSwPin  = 22
	SensorPin  = 26
	VSensePin  = 28
	ADCRefVolt = 3.3

	VSenseGain             = 2
	VSenseDiodeCorrection  = 0.3
	OutputGamma            = 2.8
	RGBGamma               = 2.2
	PWMFreqHz              = 1000
	I2SInternalBufferBytes = 2048
)
