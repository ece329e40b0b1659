package synth

// AudioDriver is the capability both concrete drivers (oto, portaudio)
// satisfy: bind a Backend to an output device and dispose of it cleanly.
type AudioDriver interface {
	Dispose()
}

// NewAudioDriver constructs the audio driver named by backend's Options,
// defaulting to oto when Driver is unset.
func NewAudioDriver(backend *Backend) (AudioDriver, error) {
	switch backend.opts.Driver {
	case "portaudio":
		return ConstructPortAudioDriver(backend)
	default:
		return ConstructAudioDriver(backend)
	}
}
