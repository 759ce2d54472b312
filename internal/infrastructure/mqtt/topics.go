package mqtt

import "fmt"

// Topic prefixes. All topics live under a single root so one ACL entry
// covers the service.
const (
	TopicPrefix = "vtxcore"

	TopicPrefixCore    = TopicPrefix + "/core"
	TopicPrefixControl = TopicPrefix + "/control"
	TopicPrefixSystem  = TopicPrefix + "/system"
)

// Topics provides builders for the service's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.VTXState("quad-7") // "vtxcore/state/vtx/quad-7"
type Topics struct{}

// VTXState is where a remote transmitter publishes its live state (retained).
//
// Example: vtxcore/state/vtx/quad-7
func (Topics) VTXState(deviceID string) string {
	return fmt.Sprintf("%s/state/vtx/%s", TopicPrefix, deviceID)
}

// VTXCommand is where set-operations for a remote transmitter are sent.
//
// Example: vtxcore/command/vtx/quad-7
func (Topics) VTXCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/vtx/%s", TopicPrefix, deviceID)
}

// VTXSettingsSet receives desired-settings updates.
//
// Example: vtxcore/config/vtx/set
func (Topics) VTXSettingsSet() string {
	return TopicPrefix + "/config/vtx/set"
}

// VTXPit receives pit-mode requests.
//
// Example: vtxcore/control/vtx/pit
func (Topics) VTXPit() string {
	return TopicPrefixControl + "/vtx/pit"
}

// Arm receives the vehicle arm state when no flight controller is attached.
//
// Example: vtxcore/control/arm
func (Topics) Arm() string {
	return TopicPrefixControl + "/arm"
}

// VTXStatus carries the retained core status.
//
// Example: vtxcore/core/vtx/status
func (Topics) VTXStatus() string {
	return TopicPrefixCore + "/vtx/status"
}

// VTXHistory carries the retained list of recent desired-settings changes.
//
// Example: vtxcore/core/vtx/history
func (Topics) VTXHistory() string {
	return TopicPrefixCore + "/vtx/history"
}

// AuditRecent carries the retained page of recent control requests.
//
// Example: vtxcore/core/audit/recent
func (Topics) AuditRecent() string {
	return TopicPrefixCore + "/audit/recent"
}

// SystemStatus carries the service's online/offline status and LWT.
//
// Example: vtxcore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllVTXStates matches the state topic of every remote transmitter.
//
// Pattern: vtxcore/state/vtx/+
func (Topics) AllVTXStates() string {
	return TopicPrefix + "/state/vtx/+"
}

// AllTopics matches every topic of the service.
//
// Pattern: vtxcore/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
