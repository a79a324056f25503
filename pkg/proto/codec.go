package proto

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// The payload encoding is the protobuf wire format, maintained by hand
// against the field numbers below. Scalars follow proto3 presence (zero
// values are not emitted); embedded messages are emitted whenever their
// pointer is set; unknown fields are skipped on decode.

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendDoubleField(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendEmbedded(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

// skipField consumes a field this decoder does not know.
func skipField(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

// ---- User ----

func (u *User) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, u.UserID)
	return appendStringField(b, 2, u.ServerID)
}

func (u *User) Marshal() []byte { return u.appendTo(nil) }

func (u *User) Unmarshal(data []byte) error {
	*u = User{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u.UserID, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u.ServerID, n = v, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- Group ----

func (g *Group) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, g.GroupID)
	return appendStringField(b, 2, g.ServerID)
}

func (g *Group) Marshal() []byte { return g.appendTo(nil) }

func (g *Group) Unmarshal(data []byte) error {
	*g = Group{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g.GroupID, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g.ServerID, n = v, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- UserOfGroup ----

func (ug *UserOfGroup) appendTo(b []byte) []byte {
	b = appendEmbedded(b, 1, ug.User.appendTo(nil))
	return appendEmbedded(b, 2, ug.Group.appendTo(nil))
}

func (ug *UserOfGroup) Marshal() []byte { return ug.appendTo(nil) }

func (ug *UserOfGroup) Unmarshal(data []byte) error {
	*ug = UserOfGroup{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := ug.User.Unmarshal(v); err != nil {
				return err
			}
			n = m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := ug.Group.Unmarshal(v); err != nil {
				return err
			}
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- Coordinates ----

func (c *Coordinates) appendTo(b []byte) []byte {
	b = appendDoubleField(b, 1, c.Latitude)
	return appendDoubleField(b, 2, c.Longitude)
}

func (c *Coordinates) Marshal() []byte { return c.appendTo(nil) }

func (c *Coordinates) Unmarshal(data []byte) error {
	*c = Coordinates{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.Fixed64Type:
			v, m := protowire.ConsumeFixed64(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			c.Latitude, n = math.Float64frombits(v), m
		case num == 2 && typ == protowire.Fixed64Type:
			v, m := protowire.ConsumeFixed64(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			c.Longitude, n = math.Float64frombits(v), m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- LiveLocation ----

func (l *LiveLocation) appendTo(b []byte) []byte {
	if l.User != nil {
		b = appendEmbedded(b, 1, l.User.appendTo(nil))
	}
	b = appendVarintField(b, 2, uint64(l.Timestamp))
	if l.Location != nil {
		b = appendEmbedded(b, 3, l.Location.appendTo(nil))
	}
	return b
}

func (l *LiveLocation) Marshal() []byte { return l.appendTo(nil) }

func (l *LiveLocation) Unmarshal(data []byte) error {
	*l = LiveLocation{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			l.User, n = u, m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			l.Timestamp, n = int64(v), m
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			c := new(Coordinates)
			if err := c.Unmarshal(v); err != nil {
				return err
			}
			l.Location, n = c, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- LiveLocations ----

func (l *LiveLocations) appendTo(b []byte) []byte {
	for i := range l.Locations {
		e := &l.Locations[i]
		var body []byte
		body = appendEmbedded(body, 1, e.Location.appendTo(nil))
		body = appendVarintField(body, 2, uint64(e.ExpiresAt))
		b = appendEmbedded(b, 1, body)
	}
	return b
}

func (l *LiveLocations) Marshal() []byte { return l.appendTo(nil) }

func (l *LiveLocations) Unmarshal(data []byte) error {
	*l = LiveLocations{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			var e ExtendedLiveLocation
			if err := e.unmarshal(v); err != nil {
				return err
			}
			l.Locations = append(l.Locations, e)
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

func (e *ExtendedLiveLocation) unmarshal(data []byte) error {
	*e = ExtendedLiveLocation{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := e.Location.Unmarshal(v); err != nil {
				return err
			}
			n = m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			e.ExpiresAt, n = int64(v), m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- Translation ----

func (t *Translation) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(t.TargetLanguage))
	b = appendStringField(b, 2, t.OriginalText)
	return appendStringField(b, 3, t.TranslatedText)
}

func (t *Translation) Marshal() []byte { return t.appendTo(nil) }

func (t *Translation) Unmarshal(data []byte) error {
	*t = Translation{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			t.TargetLanguage, n = Language(v), m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			t.OriginalText, n = v, m
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			t.TranslatedText, n = v, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ChatMessage ----

func (m *ChatMessage) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, m.Snowflake)
	if m.Author != nil {
		b = appendEmbedded(b, 2, m.Author.appendTo(nil))
	}
	switch {
	case m.ToUser != nil:
		b = appendEmbedded(b, 3, m.ToUser.appendTo(nil))
	case m.ToGroup != nil:
		b = appendEmbedded(b, 4, m.ToGroup.appendTo(nil))
	case m.ToUserOfGroup != nil:
		b = appendEmbedded(b, 5, m.ToUserOfGroup.appendTo(nil))
	}
	switch {
	case m.Translation != nil:
		b = appendEmbedded(b, 8, m.Translation.appendTo(nil))
	case m.Location != nil:
		b = appendEmbedded(b, 7, m.Location.appendTo(nil))
	case m.Text != "":
		b = appendStringField(b, 6, m.Text)
	}
	return b
}

func (m *ChatMessage) Marshal() []byte { return m.appendTo(nil) }

func (m *ChatMessage) Unmarshal(data []byte) error {
	*m = ChatMessage{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, c := protowire.ConsumeVarint(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			m.Snowflake, n = v, c
		case num == 2 && typ == protowire.BytesType:
			v, c := protowire.ConsumeBytes(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			m.Author, n = u, c
		case num == 3 && typ == protowire.BytesType:
			v, c := protowire.ConsumeBytes(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			m.ToUser, m.ToGroup, m.ToUserOfGroup, n = u, nil, nil, c
		case num == 4 && typ == protowire.BytesType:
			v, c := protowire.ConsumeBytes(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			g := new(Group)
			if err := g.Unmarshal(v); err != nil {
				return err
			}
			m.ToUser, m.ToGroup, m.ToUserOfGroup, n = nil, g, nil, c
		case num == 5 && typ == protowire.BytesType:
			v, c := protowire.ConsumeBytes(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			ug := new(UserOfGroup)
			if err := ug.Unmarshal(v); err != nil {
				return err
			}
			m.ToUser, m.ToGroup, m.ToUserOfGroup, n = nil, nil, ug, c
		case num == 6 && typ == protowire.BytesType:
			v, c := protowire.ConsumeString(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			m.Text, m.Location, m.Translation, n = v, nil, nil, c
		case num == 7 && typ == protowire.BytesType:
			v, c := protowire.ConsumeBytes(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			l := new(LiveLocation)
			if err := l.Unmarshal(v); err != nil {
				return err
			}
			m.Text, m.Location, m.Translation, n = "", l, nil, c
		case num == 8 && typ == protowire.BytesType:
			v, c := protowire.ConsumeBytes(data)
			if c < 0 {
				return protowire.ParseError(c)
			}
			tr := new(Translation)
			if err := tr.Unmarshal(v); err != nil {
				return err
			}
			m.Text, m.Location, m.Translation, n = "", nil, tr, c
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ChatMessageResponse ----

func (r *ChatMessageResponse) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, r.Snowflake)
	for i := range r.Statuses {
		s := &r.Statuses[i]
		var body []byte
		body = appendEmbedded(body, 1, s.User.appendTo(nil))
		body = appendVarintField(body, 2, uint64(s.Status))
		b = appendEmbedded(b, 2, body)
	}
	return b
}

func (r *ChatMessageResponse) Marshal() []byte { return r.appendTo(nil) }

func (r *ChatMessageResponse) Unmarshal(data []byte) error {
	*r = ChatMessageResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			r.Snowflake, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			var s DeliveryStatus
			if err := s.unmarshal(v); err != nil {
				return err
			}
			r.Statuses = append(r.Statuses, s)
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

func (s *DeliveryStatus) unmarshal(data []byte) error {
	*s = DeliveryStatus{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := s.User.Unmarshal(v); err != nil {
				return err
			}
			n = m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			s.Status, n = DeliveryResult(v), m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ConnectClient ----

func (c *ConnectClient) appendTo(b []byte) []byte {
	if c.User != nil {
		b = appendEmbedded(b, 1, c.User.appendTo(nil))
	}
	return b
}

func (c *ConnectClient) Marshal() []byte { return c.appendTo(nil) }

func (c *ConnectClient) Unmarshal(data []byte) error {
	*c = ConnectClient{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			c.User, n = u, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ConnectServer ----

func (c *ConnectServer) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, c.ServerID)
	for _, f := range c.Features {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, f)
	}
	return b
}

func (c *ConnectServer) Marshal() []byte { return c.appendTo(nil) }

func (c *ConnectServer) Unmarshal(data []byte) error {
	*c = ConnectServer{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			c.ServerID, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			c.Features = append(c.Features, v)
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ConnectResponse ----

func (c *ConnectResponse) appendTo(b []byte) []byte {
	return appendVarintField(b, 1, uint64(c.Result))
}

func (c *ConnectResponse) Marshal() []byte { return c.appendTo(nil) }

func (c *ConnectResponse) Unmarshal(data []byte) error {
	*c = ConnectResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			c.Result, n = ConnectResult(v), m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- HangUp ----

func (h *HangUp) appendTo(b []byte) []byte {
	return appendVarintField(b, 1, uint64(h.Reason))
}

func (h *HangUp) Marshal() []byte { return h.appendTo(nil) }

func (h *HangUp) Unmarshal(data []byte) error {
	*h = HangUp{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			h.Reason, n = HangUpReason(v), m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ServerAnnounce ----

func (a *ServerAnnounce) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, a.ServerID)
	for i := range a.Features {
		f := &a.Features[i]
		var body []byte
		body = appendStringField(body, 1, f.Name)
		body = appendVarintField(body, 2, uint64(f.Port))
		b = appendEmbedded(b, 2, body)
	}
	return b
}

func (a *ServerAnnounce) Marshal() []byte { return a.appendTo(nil) }

func (a *ServerAnnounce) Unmarshal(data []byte) error {
	*a = ServerAnnounce{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			a.ServerID, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			var f Feature
			if err := f.unmarshal(v); err != nil {
				return err
			}
			a.Features = append(a.Features, f)
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

func (f *Feature) unmarshal(data []byte) error {
	*f = Feature{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			f.Name, n = v, m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			f.Port, n = uint32(v), m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- QueryUsers ----

func (q *QueryUsers) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, q.Query)
	return appendVarintField(b, 2, q.Handle)
}

func (q *QueryUsers) Marshal() []byte { return q.appendTo(nil) }

func (q *QueryUsers) Unmarshal(data []byte) error {
	*q = QueryUsers{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			q.Query, n = v, m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			q.Handle, n = v, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- QueryUsersResponse ----

func (q *QueryUsersResponse) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, q.Handle)
	for i := range q.Users {
		b = appendEmbedded(b, 2, q.Users[i].appendTo(nil))
	}
	return b
}

func (q *QueryUsersResponse) Marshal() []byte { return q.appendTo(nil) }

func (q *QueryUsersResponse) Unmarshal(data []byte) error {
	*q = QueryUsersResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			q.Handle, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			var u User
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			q.Users = append(q.Users, u)
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ModifyGroup ----

func (g *ModifyGroup) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, g.Handle)
	b = appendStringField(b, 2, g.GroupID)
	b = appendStringField(b, 3, g.DisplayName)
	b = appendBoolField(b, 4, g.Delete)
	for i := range g.Admins {
		b = appendEmbedded(b, 5, g.Admins[i].appendTo(nil))
	}
	return b
}

func (g *ModifyGroup) Marshal() []byte { return g.appendTo(nil) }

func (g *ModifyGroup) Unmarshal(data []byte) error {
	*g = ModifyGroup{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g.Handle, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g.GroupID, n = v, m
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g.DisplayName, n = v, m
		case num == 4 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g.Delete, n = protowire.DecodeBool(v), m
		case num == 5 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			var u User
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			g.Admins = append(g.Admins, u)
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ModifyGroupResponse ----

func (r *ModifyGroupResponse) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, r.Handle)
	return appendVarintField(b, 2, uint64(r.Result))
}

func (r *ModifyGroupResponse) Marshal() []byte { return r.appendTo(nil) }

func (r *ModifyGroupResponse) Unmarshal(data []byte) error {
	*r = ModifyGroupResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			r.Handle, n = v, m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			r.Result, n = GroupOpResult(v), m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- InviteToGroup ----

func (i *InviteToGroup) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, i.Handle)
	b = appendStringField(b, 2, i.GroupID)
	if i.User != nil {
		b = appendEmbedded(b, 3, i.User.appendTo(nil))
	}
	return b
}

func (i *InviteToGroup) Marshal() []byte { return i.appendTo(nil) }

func (i *InviteToGroup) Unmarshal(data []byte) error {
	*i = InviteToGroup{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			i.Handle, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			i.GroupID, n = v, m
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			i.User, n = u, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- NotifyGroupInvite ----

func (i *NotifyGroupInvite) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, i.Handle)
	if i.Group != nil {
		b = appendEmbedded(b, 2, i.Group.appendTo(nil))
	}
	return b
}

func (i *NotifyGroupInvite) Marshal() []byte { return i.appendTo(nil) }

func (i *NotifyGroupInvite) Unmarshal(data []byte) error {
	*i = NotifyGroupInvite{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			i.Handle, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g := new(Group)
			if err := g.Unmarshal(v); err != nil {
				return err
			}
			i.Group, n = g, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- JoinGroup ----

func (j *JoinGroup) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, j.Handle)
	if j.Group != nil {
		b = appendEmbedded(b, 2, j.Group.appendTo(nil))
	}
	if j.User != nil {
		b = appendEmbedded(b, 3, j.User.appendTo(nil))
	}
	return b
}

func (j *JoinGroup) Marshal() []byte { return j.appendTo(nil) }

func (j *JoinGroup) Unmarshal(data []byte) error {
	*j = JoinGroup{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			j.Handle, n = v, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g := new(Group)
			if err := g.Unmarshal(v); err != nil {
				return err
			}
			j.Group, n = g, m
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			j.User, n = u, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- LeaveGroup ----

func (l *LeaveGroup) appendTo(b []byte) []byte {
	if l.Group != nil {
		b = appendEmbedded(b, 1, l.Group.appendTo(nil))
	}
	if l.User != nil {
		b = appendEmbedded(b, 2, l.User.appendTo(nil))
	}
	return b
}

func (l *LeaveGroup) Marshal() []byte { return l.appendTo(nil) }

func (l *LeaveGroup) Unmarshal(data []byte) error {
	*l = LeaveGroup{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g := new(Group)
			if err := g.Unmarshal(v); err != nil {
				return err
			}
			l.Group, n = g, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			l.User, n = u, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- ListGroupMembers ----

func (l *ListGroupMembers) appendTo(b []byte) []byte {
	if l.Group != nil {
		b = appendEmbedded(b, 1, l.Group.appendTo(nil))
	}
	return b
}

func (l *ListGroupMembers) Marshal() []byte { return l.appendTo(nil) }

func (l *ListGroupMembers) Unmarshal(data []byte) error {
	*l = ListGroupMembers{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g := new(Group)
			if err := g.Unmarshal(v); err != nil {
				return err
			}
			l.Group, n = g, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- GroupMembers ----

func (g *GroupMembers) appendTo(b []byte) []byte {
	if g.Group != nil {
		b = appendEmbedded(b, 1, g.Group.appendTo(nil))
	}
	b = appendVarintField(b, 2, uint64(g.Result))
	for i := range g.Members {
		b = appendEmbedded(b, 3, g.Members[i].appendTo(nil))
	}
	return b
}

func (g *GroupMembers) Marshal() []byte { return g.appendTo(nil) }

func (g *GroupMembers) Unmarshal(data []byte) error {
	*g = GroupMembers{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			gr := new(Group)
			if err := gr.Unmarshal(v); err != nil {
				return err
			}
			g.Group, n = gr, m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			g.Result, n = MembersResult(v), m
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			var u User
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			g.Members = append(g.Members, u)
			n = m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- SetReminder ----

func (s *SetReminder) appendTo(b []byte) []byte {
	if s.User != nil {
		b = appendEmbedded(b, 1, s.User.appendTo(nil))
	}
	b = appendStringField(b, 2, s.Event)
	return appendVarintField(b, 3, s.CountdownSeconds)
}

func (s *SetReminder) Marshal() []byte { return s.appendTo(nil) }

func (s *SetReminder) Unmarshal(data []byte) error {
	*s = SetReminder{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			s.User, n = u, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			s.Event, n = v, m
		case num == 3 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			s.CountdownSeconds, n = v, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- Reminder ----

func (r *Reminder) appendTo(b []byte) []byte {
	if r.User != nil {
		b = appendEmbedded(b, 1, r.User.appendTo(nil))
	}
	return appendStringField(b, 2, r.Content)
}

func (r *Reminder) Marshal() []byte { return r.appendTo(nil) }

func (r *Reminder) Unmarshal(data []byte) error {
	*r = Reminder{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u := new(User)
			if err := u.Unmarshal(v); err != nil {
				return err
			}
			r.User, n = u, m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			r.Content, n = v, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}

// ---- Translate / Translated ----

func appendTranslatePayload(b []byte, lang Language, original, translated string) []byte {
	b = appendVarintField(b, 1, uint64(lang))
	b = appendStringField(b, 2, original)
	return appendStringField(b, 3, translated)
}

func unmarshalTranslatePayload(data []byte) (lang Language, original, translated string, err error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return 0, "", "", protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return 0, "", "", protowire.ParseError(m)
			}
			lang, n = Language(v), m
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return 0, "", "", protowire.ParseError(m)
			}
			original, n = v, m
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return 0, "", "", protowire.ParseError(m)
			}
			translated, n = v, m
		default:
			if n, err = skipField(num, typ, data); err != nil {
				return 0, "", "", err
			}
		}
		data = data[n:]
	}
	return lang, original, translated, nil
}

func (t *Translate) Marshal() []byte {
	return appendTranslatePayload(nil, t.TargetLanguage, t.OriginalText, t.TranslatedText)
}

func (t *Translate) Unmarshal(data []byte) error {
	lang, original, translated, err := unmarshalTranslatePayload(data)
	if err != nil {
		return err
	}
	*t = Translate{TargetLanguage: lang, OriginalText: original, TranslatedText: translated}
	return nil
}

func (t *Translated) Marshal() []byte {
	return appendTranslatePayload(nil, t.TargetLanguage, t.OriginalText, t.TranslatedText)
}

func (t *Translated) Unmarshal(data []byte) error {
	lang, original, translated, err := unmarshalTranslatePayload(data)
	if err != nil {
		return err
	}
	*t = Translated{TargetLanguage: lang, OriginalText: original, TranslatedText: translated}
	return nil
}

// ---- UnsupportedMessageNotification ----

func (u *UnsupportedMessageNotification) appendTo(b []byte) []byte {
	return appendStringField(b, 1, u.MessageName)
}

func (u *UnsupportedMessageNotification) Marshal() []byte { return u.appendTo(nil) }

func (u *UnsupportedMessageNotification) Unmarshal(data []byte) error {
	*u = UnsupportedMessageNotification{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return protowire.ParseError(m)
			}
			u.MessageName, n = v, m
		default:
			var err error
			if n, err = skipField(num, typ, data); err != nil {
				return err
			}
		}
		data = data[n:]
	}
	return nil
}
