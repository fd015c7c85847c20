package portaudio

import (
	"fmt"
	"io"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device describes an audio device.
type Device struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	LowInputLatency   time.Duration
	LowOutputLatency  time.Duration
	HighInputLatency  time.Duration
	HighOutputLatency time.Duration
	SampleRate        float64
}

// Devices returns all available devices and indexes of default input and
// output devices. Default index is NoDevice if there is no default.
func Devices() ([]Device, int, int, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, NoDevice, NoDevice, err
	}
	defaultIn, defaultOut := NoDevice, NoDevice
	in, _ := portaudio.DefaultInputDevice()
	out, _ := portaudio.DefaultOutputDevice()
	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		d := Device{
			Index:             i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			LowInputLatency:   info.DefaultLowInputLatency,
			LowOutputLatency:  info.DefaultLowOutputLatency,
			HighInputLatency:  info.DefaultHighInputLatency,
			HighOutputLatency: info.DefaultHighOutputLatency,
			SampleRate:        info.DefaultSampleRate,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		if same(info, in) {
			defaultIn = i
		}
		if same(info, out) {
			defaultOut = i
		}
		devices = append(devices, d)
	}
	return devices, defaultIn, defaultOut, nil
}

func same(a, b *portaudio.DeviceInfo) bool {
	if a == nil || b == nil {
		return false
	}
	return a == b || (a.Name == b.Name && a.HostApi == b.HostApi)
}

// Print writes device description.
func (d Device) Print(w io.Writer) {
	fmt.Fprintf(w, "Device %d:\n", d.Index)
	fmt.Fprintf(w, "name: %s\n", d.Name)
	fmt.Fprintf(w, "host_api: %s\n", d.HostAPI)
	fmt.Fprintf(w, "max_input_channels: %d\n", d.MaxInputChannels)
	fmt.Fprintf(w, "max_output_channels: %d\n", d.MaxOutputChannels)
	fmt.Fprintf(w, "default_low_input_latency: %d ms\n", d.LowInputLatency.Milliseconds())
	fmt.Fprintf(w, "default_low_output_latency: %d ms\n", d.LowOutputLatency.Milliseconds())
	fmt.Fprintf(w, "default_high_input_latency: %d ms\n", d.HighInputLatency.Milliseconds())
	fmt.Fprintf(w, "default_high_output_latency: %d ms\n", d.HighOutputLatency.Milliseconds())
	fmt.Fprintf(w, "default_sample_rate: %v\n", d.SampleRate)
}
