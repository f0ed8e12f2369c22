package scene

// Snapshot is a flat, serializable copy of a Scene, sorted by key.
type Snapshot struct {
	Stats    Stats           `json:"stats" yaml:"stats"`
	Routes   []RouteSlot     `json:"routes" yaml:"routes"`
	Channels []ChannelRecord `json:"channels" yaml:"channels"`
	Outputs  []OutputRecord  `json:"outputs" yaml:"outputs"`
}

// ChannelRecord is the serialized form of any Channel variant. Fields that
// do not apply to Kind are left empty.
type ChannelRecord struct {
	Key      string `json:"key" yaml:"key"`
	Kind     string `json:"kind" yaml:"kind"`
	Name     string `json:"name" yaml:"name"`
	Color    string `json:"color" yaml:"color"`
	RouteKey string `json:"route_key,omitempty" yaml:"route_key,omitempty"`
	Type     string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Index    int    `json:"channel_index,omitempty" yaml:"channel_index,omitempty"`
	Mix      string `json:"mix,omitempty" yaml:"mix,omitempty"`
	MixIndex string `json:"mix_index,omitempty" yaml:"mix_index,omitempty"`
	Internal string `json:"internal,omitempty" yaml:"internal,omitempty"`
}

// OutputRecord is one physical output and the key feeding it.
type OutputRecord struct {
	Key    string `json:"key" yaml:"key"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// RecordOf flattens a channel for serialization.
func RecordOf(ch Channel) ChannelRecord {
	info := ch.Info()
	rec := ChannelRecord{
		Key:   info.Key,
		Kind:  ch.Kind().String(),
		Name:  info.Name,
		Color: info.Color,
	}
	switch c := ch.(type) {
	case InputChannel:
		rec.RouteKey = c.RouteKey
		rec.Type = c.Type
		rec.Index = c.Index
	case MixChannel:
		rec.Mix = c.Mix
		rec.MixIndex = c.MixIndex
	case InternalChannel:
		rec.Internal = c.Internal
	}
	return rec
}

// Snapshot copies the whole model.
func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{
		Stats:    s.stats,
		Routes:   make([]RouteSlot, 0, len(s.routes)),
		Channels: make([]ChannelRecord, 0, len(s.channels)),
		Outputs:  make([]OutputRecord, 0, len(s.outputs)),
	}
	for _, k := range sortedKeys(s.routes) {
		snap.Routes = append(snap.Routes, s.routes[k])
	}
	for _, k := range sortedKeys(s.channels) {
		snap.Channels = append(snap.Channels, RecordOf(s.channels[k]))
	}
	for _, k := range sortedKeys(s.outputs) {
		snap.Outputs = append(snap.Outputs, OutputRecord{Key: k, Source: s.outputs[k]})
	}
	return snap
}
