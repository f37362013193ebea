// internal/driver/ops.go
package driver

import (
	"fmt"

	"github.com/tamzrod/uhf-replicator/internal/capability"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/records"
)

// ------------------------------------------------------------
// helpers
// ------------------------------------------------------------

func get[T records.Body](s *Session, op protocol.Opcode, payload []byte) (T, error) {
	var zero T
	resp, err := s.do(op, payload)
	if err != nil {
		return zero, err
	}
	v, err := records.As[T](resp)
	if err != nil {
		return zero, fmt.Errorf("driver: %w", err)
	}
	return v, nil
}

// set sends [SET][record] and discards the reply body.
func (s *Session) set(op protocol.Opcode, rec interface{ MarshalBinary() ([]byte, error) }) error {
	b, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = s.do(op, append([]byte{byte(protocol.OptionSet)}, b...))
	return err
}

var optGet = []byte{byte(protocol.OptionGet)}

// ------------------------------------------------------------
// lifecycle
// ------------------------------------------------------------

// Init sends module init (Family B).
func (s *Session) Init() error {
	if err := s.requireFamily(protocol.FamilyB, "module init"); err != nil {
		return err
	}
	_, err := s.do(protocol.OpBModuleInit, nil)
	return err
}

// Reboot restarts the reader. The transport usually drops afterwards; use
// Reconnect.
func (s *Session) Reboot() error {
	if err := s.requireFamily(protocol.FamilyB, "reboot"); err != nil {
		return err
	}
	_, err := s.do(protocol.OpBReboot, nil)
	return err
}

func (s *Session) DeviceInfo() (records.DeviceInfo, error) {
	if err := s.requireFamily(protocol.FamilyB, "device info"); err != nil {
		return records.DeviceInfo{}, err
	}
	return get[records.DeviceInfo](s, protocol.OpBDeviceInfo, nil)
}

// ReaderInfo is the Family A identification record.
func (s *Session) ReaderInfo() (records.ReaderInfo, error) {
	if err := s.requireFamily(protocol.FamilyA, "reader info"); err != nil {
		return records.ReaderInfo{}, err
	}
	return get[records.ReaderInfo](s, protocol.OpAReaderInfo, nil)
}

// ------------------------------------------------------------
// power / protocol
// ------------------------------------------------------------

// SetPower validates power against the capability limit before any I/O.
func (s *Session) SetPower(power uint8) error {
	if limit := s.cap.PowerLimit(); power > limit {
		return protocol.Invalid("power", power, fmt.Sprintf("must be 0..%d", limit))
	}
	var err error
	if s.opts.Family == protocol.FamilyA {
		_, err = s.do(protocol.OpASetPower, []byte{power})
	} else {
		_, err = s.do(protocol.OpBSetPower, []byte{power, 0x00})
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.settings != nil {
		s.settings.Power = power
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) RFIDProtocol() (records.RFIDProtocol, error) {
	if err := s.requireFamily(protocol.FamilyB, "rfid protocol"); err != nil {
		return 0, err
	}
	v, err := get[records.ProtocolSetting](s, protocol.OpBRFIDProtocol, optGet)
	return v.Protocol, err
}

func (s *Session) SetRFIDProtocol(p records.RFIDProtocol) error {
	if !p.Valid() {
		return protocol.Invalid("rfid_protocol", p, "unknown protocol")
	}
	if err := s.requireFamily(protocol.FamilyB, "rfid protocol"); err != nil {
		return err
	}
	_, err := s.do(protocol.OpBRFIDProtocol, []byte{byte(protocol.OptionSet), byte(p)})
	return err
}

// ------------------------------------------------------------
// reader settings (cached)
// ------------------------------------------------------------

// ReaderSettings reads all parameters and refreshes the cache.
func (s *Session) ReaderSettings() (records.ReaderSettings, error) {
	if err := s.requireFamily(protocol.FamilyB, "reader settings"); err != nil {
		return records.ReaderSettings{}, err
	}
	rs, err := get[records.ReaderSettings](s, protocol.OpBGetAllParams, nil)
	if err != nil {
		return rs, err
	}
	s.cache(rs)
	return rs, nil
}

// SetReaderSettings writes all parameters; the cache is updated on success.
func (s *Session) SetReaderSettings(rs records.ReaderSettings) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	if limit := s.cap.PowerLimit(); rs.Power > limit {
		return protocol.Invalid("power", rs.Power, fmt.Sprintf("must be 0..%d", limit))
	}
	if err := s.requireFamily(protocol.FamilyB, "reader settings"); err != nil {
		return err
	}
	b, err := rs.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := s.do(protocol.OpBSetAllParams, b); err != nil {
		return err
	}
	s.cache(rs)
	return nil
}

// CachedSettings returns the last settings read or written, if any.
func (s *Session) CachedSettings() (records.ReaderSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return records.ReaderSettings{}, false
	}
	return *s.settings, true
}

func (s *Session) cache(rs records.ReaderSettings) {
	s.mu.Lock()
	s.settings = &rs
	s.mu.Unlock()
}

// ------------------------------------------------------------
// network
// ------------------------------------------------------------

func (s *Session) NetworkSettings() (records.NetworkSettings, error) {
	if err := s.require(capability.NetworkSettings); err != nil {
		return records.NetworkSettings{}, err
	}
	return get[records.NetworkSettings](s, protocol.OpBNetwork, optGet)
}

func (s *Session) SetNetworkSettings(n records.NetworkSettings) error {
	if err := s.require(capability.NetworkSettings); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}
	return s.set(protocol.OpBNetwork, n)
}

func (s *Session) RemoteNetworkSettings() (records.RemoteNetworkSettings, error) {
	if err := s.require(capability.NetworkSettings); err != nil {
		return records.RemoteNetworkSettings{}, err
	}
	return get[records.RemoteNetworkSettings](s, protocol.OpBRemoteNetwork, optGet)
}

func (s *Session) SetRemoteNetworkSettings(r records.RemoteNetworkSettings) error {
	if err := s.require(capability.NetworkSettings); err != nil {
		return err
	}
	return s.set(protocol.OpBRemoteNetwork, r)
}

// ------------------------------------------------------------
// output / relay
// ------------------------------------------------------------

func (s *Session) OutputControl() (records.OutputControl, error) {
	if err := s.require(capability.OutputControl); err != nil {
		return records.OutputControl{}, err
	}
	return get[records.OutputControl](s, protocol.OpBOutputParams, optGet)
}

func (s *Session) SetOutputControl(o records.OutputControl) error {
	if err := s.require(capability.OutputControl); err != nil {
		return err
	}
	return s.set(protocol.OpBOutputParams, o)
}

// SetRelay releases or closes the relay for validTime seconds.
func (s *Session) SetRelay(r records.Relay, validTime uint8) error {
	if r != records.RelayRelease && r != records.RelayClose {
		return protocol.Invalid("relay", r, "must be release or close")
	}
	if err := s.require(capability.OutputControl); err != nil {
		return err
	}
	_, err := s.do(protocol.OpBRelay, []byte{byte(r), validTime})
	return err
}

// ------------------------------------------------------------
// inventory filter
// ------------------------------------------------------------

func (s *Session) MaskInventoryPermission() (records.MaskInventoryPermission, error) {
	if err := s.require(capability.InventoryFilter); err != nil {
		return records.MaskInventoryPermission{}, err
	}
	return get[records.MaskInventoryPermission](s, protocol.OpBPermission, optGet)
}

func (s *Session) SetMaskInventoryPermission(m records.MaskInventoryPermission) error {
	if err := s.require(capability.InventoryFilter); err != nil {
		return err
	}
	return s.set(protocol.OpBPermission, m)
}

func (s *Session) InventoryRange() (records.InventoryRange, error) {
	if err := s.require(capability.InventoryFilter); err != nil {
		return records.InventoryRange{}, err
	}
	return get[records.InventoryRange](s, protocol.OpBInventoryRange, optGet)
}

func (s *Session) SetInventoryRange(r records.InventoryRange) error {
	if err := s.require(capability.InventoryFilter); err != nil {
		return err
	}
	return s.set(protocol.OpBInventoryRange, r)
}

// ------------------------------------------------------------
// select / query
// ------------------------------------------------------------

func (s *Session) SelectParameters() (records.SelectParameters, error) {
	if err := s.require(capability.SelectQuery); err != nil {
		return records.SelectParameters{}, err
	}
	return get[records.SelectParameters](s, protocol.OpBSelectMask, optGet)
}

func (s *Session) SetSelectParameters(p records.SelectParameters) error {
	if err := s.require(capability.SelectQuery); err != nil {
		return err
	}
	return s.set(protocol.OpBSelectMask, p)
}

func (s *Session) QueryParameters() (records.QueryParameters, error) {
	if err := s.require(capability.SelectQuery); err != nil {
		return records.QueryParameters{}, err
	}
	return get[records.QueryParameters](s, protocol.OpBQueryParam, optGet)
}

func (s *Session) SetQueryParameters(q records.QueryParameters) error {
	if err := s.require(capability.SelectQuery); err != nil {
		return err
	}
	return s.set(protocol.OpBQueryParam, q)
}

// ------------------------------------------------------------
// antenna power / temperature
// ------------------------------------------------------------

func (s *Session) AntennaPower() (records.AntennaPower, error) {
	if err := s.requireFamily(protocol.FamilyB, "antenna power"); err != nil {
		return records.AntennaPower{}, err
	}
	return get[records.AntennaPower](s, protocol.OpBAntennaPower, optGet)
}

func (s *Session) SetAntennaPower(a records.AntennaPower) error {
	if err := a.Validate(s.cap.PowerLimit()); err != nil {
		return err
	}
	if err := s.requireFamily(protocol.FamilyB, "antenna power"); err != nil {
		return err
	}
	return s.set(protocol.OpBAntennaPower, a)
}

func (s *Session) CurrentTemperature() (records.Temperature, error) {
	if err := s.require(capability.TemperatureControl); err != nil {
		return records.Temperature{}, err
	}
	return get[records.Temperature](s, protocol.OpBCurrentTemperature, nil)
}

func (s *Session) SetMaxTemperature(limit uint8) error {
	if err := s.require(capability.TemperatureControl); err != nil {
		return err
	}
	_, err := s.do(protocol.OpBSetMaxTemperature, []byte{limit})
	return err
}
