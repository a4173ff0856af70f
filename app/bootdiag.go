//go:build !(tinygo && bootdebug)

package app

func (s *System) bootStep(step string) {
	s.log.Debug().Str("step", step).Log("boot")
}
