package emu

// EnvelopeState identifies the envelope generator phase, including the
// gain modes selected when ADSR is disabled.
type EnvelopeState int

const (
	EnvAttack EnvelopeState = iota
	EnvDecay
	EnvSustain
	EnvRelease
	EnvGainDirect
	EnvGainLinearDecrease
	EnvGainExpDecrease
	EnvGainLinearIncrease
	EnvGainBentIncrease
)

// envelopeMax is the largest envelope level.
const envelopeMax = 0x7FF

// adsrPhase is the internal ADSR phase. Gain modes leave it untouched
// except for the attack overflow transition, as on hardware.
type adsrPhase uint8

const (
	phaseAttack adsrPhase = iota
	phaseDecay
	phaseSustain
	phaseRelease
)

// Envelope is one voice's ADSR/gain envelope generator.
type Envelope struct {
	ADSR0 uint8
	ADSR1 uint8
	Gain  uint8

	level  int32
	hidden int32
	phase  adsrPhase
}

// Level returns the current envelope level in [0, 2047].
func (e *Envelope) Level() int32 {
	return e.level
}

// State returns the active envelope phase or gain mode.
func (e *Envelope) State() EnvelopeState {
	if e.phase == phaseRelease {
		return EnvRelease
	}
	if e.ADSR0&0x80 != 0 {
		return EnvelopeState(e.phase)
	}
	switch e.Gain >> 5 {
	case 4:
		return EnvGainLinearDecrease
	case 5:
		return EnvGainExpDecrease
	case 6:
		return EnvGainLinearIncrease
	case 7:
		return EnvGainBentIncrease
	}
	return EnvGainDirect
}

// KeyOn restarts the envelope from silence in the attack phase.
func (e *Envelope) KeyOn() {
	e.phase = phaseAttack
	e.level = 0
	e.hidden = 0
}

// KeyOff moves the envelope to release.
func (e *Envelope) KeyOff() {
	e.phase = phaseRelease
}

// silence forces release with an immediate zero level.
func (e *Envelope) silence() {
	e.phase = phaseRelease
	e.level = 0
}

// Tick advances the envelope by one sample. counter is the shared rate
// counter; the computed level is only committed when the selected rate
// elapses.
func (e *Envelope) Tick(counter int32) {
	env := e.level

	if e.phase == phaseRelease {
		env -= 0x8
		if env < 0 {
			env = 0
		}
		e.level = env
		return
	}

	var rate int
	envData := int32(e.ADSR1)
	if e.ADSR0&0x80 != 0 {
		if e.phase >= phaseDecay {
			env--
			env -= env >> 8
			rate = int(envData & 0x1F)
			if e.phase == phaseDecay {
				rate = int((e.ADSR0>>3)&0x0E) + 0x10
			}
		} else {
			rate = int(e.ADSR0&0x0F)*2 + 1
			if rate < 31 {
				env += 0x20
			} else {
				env += 0x400
			}
		}
	} else {
		envData = int32(e.Gain)
		mode := envData >> 5
		if mode < 4 {
			env = envData * 0x10
			rate = 31
		} else {
			rate = int(envData & 0x1F)
			switch mode {
			case 4:
				env -= 0x20
			case 5:
				env--
				env -= env >> 8
			default:
				env += 0x20
				if mode > 6 && uint32(e.hidden) >= 0x600 {
					env += 0x8 - 0x20
				}
			}
		}
	}

	if env>>8 == envData>>5 && e.phase == phaseDecay {
		e.phase = phaseSustain
	}

	e.hidden = env

	if uint32(env) > envelopeMax {
		if env < 0 {
			env = 0
		} else {
			env = envelopeMax
		}
		if e.phase == phaseAttack {
			e.phase = phaseDecay
		}
	}

	if counterFires(counter, rate) {
		e.level = env
	}
}
