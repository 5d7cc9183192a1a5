package hal

import "tinyfx-go/bus"

// Capability domains.
const (
	domainIO     = "io"
	domainPower  = "power"
	domainEnv    = "env"
	domainSystem = "system"
)

func topicConfigHAL() bus.Topic { return bus.T("config", "hal") }
func topicState() bus.Topic     { return bus.T("hal", "state") }

// hal/cap/<domain>/<kind>/<name>/...
func capBase(c capKey) bus.Topic {
	return bus.T("hal", "cap", c.domain, string(c.kind), c.name)
}

func capInfo(c capKey) bus.Topic   { return capBase(c).Append("info") }
func capStatus(c capKey) bus.Topic { return capBase(c).Append("status") }
func capValue(c capKey) bus.Topic  { return capBase(c).Append("value") }
func capEvent(c capKey, tag string) bus.Topic {
	return capBase(c).Append("event", tag)
}

// CtrlTopic addresses a control verb, e.g. hal/cap/io/pwm/one/control/set.
func CtrlTopic(domain, kind, name, verb string) bus.Topic {
	return bus.T("hal", "cap", domain, kind, name, "control", verb)
}

// hal/cap/+/+/+/control/+
func ctrlWildcard() bus.Topic {
	return bus.T("hal", "cap", "+", "+", "+", "control", "+")
}
