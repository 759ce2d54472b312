// Package control is the MQTT control surface of the VTX core.
//
// It accepts desired-settings updates, the vehicle arm state and pit-mode
// requests, and publishes a retained status document on a fixed interval.
// The settings history and the audit trail are republished whenever they
// change.
//
// Topics:
//
//	vtxcore/config/vtx/set     {"band":4,"channel":1}        partial merge onto current settings
//	vtxcore/control/arm        {"armed":true} or true/false  sets the arm flag
//	vtxcore/control/vtx/pit    {"on":true} or true/false     registry pit-mode request
//	vtxcore/core/vtx/status    retained status, see Status
//	vtxcore/core/vtx/history   retained recent settings changes, see History
//	vtxcore/core/audit/recent  retained recent control requests, see AuditPage
//
// Invalid payloads are rejected with an error; the MQTT client logs it and
// the current state is left unchanged.
package control
