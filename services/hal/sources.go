package hal

import (
	"context"
	"errors"
	"time"

	"tinyfx-go/drivers/aht20"
	"tinyfx-go/types"
)

// adcSource averages an ADC in Collect; there is no conversion delay.
type adcSource struct {
	cap     capKey
	read    func(samples int) float64
	samples int
}

func (a *adcSource) Trigger(context.Context) (time.Duration, error) { return 0, nil }

func (a *adcSource) Collect(context.Context) ([]Reading, error) {
	v := a.read(a.samples)
	return []Reading{{Cap: a.cap, Value: types.VoltageValue{Volts: float32(v)}}}, nil
}

// envSource reads temperature and humidity from one AHT20 conversion.
type envSource struct {
	dev  *aht20.Device
	temp capKey
	hum  capKey
}

const envConversion = 80 * time.Millisecond

func (e *envSource) Trigger(context.Context) (time.Duration, error) {
	return envConversion, e.dev.Trigger()
}

func (e *envSource) Collect(context.Context) ([]Reading, error) {
	var r aht20.Reading
	if err := e.dev.Collect(&r); err != nil {
		if errors.Is(err, aht20.ErrNotReady) {
			return nil, ErrNotReady
		}
		return nil, err
	}
	return []Reading{
		{Cap: e.temp, Value: types.TemperatureValue{DeciC: r.DeciC()}},
		{Cap: e.hum, Value: types.HumidityValue{RHx100: r.RHx100()}},
	}, nil
}
