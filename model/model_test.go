package model_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/edge-sdk/model"
)

var _ = Describe("Envelope", func() {
	It("round-trips data through Into", func() {
		env, err := model.ParseEnvelope([]byte(`{"data":{"id":"svc1"}}`))
		Expect(err).ToNot(HaveOccurred())

		var out struct {
			Id string `json:"id"`
		}
		Expect(env.Into(&out)).To(Succeed())
		Expect(out.Id).To(Equal("svc1"))
	})

	It("carries the error member when present", func() {
		env, err := model.ParseEnvelope([]byte(`{"error":{"code":"NOT_AUTHORIZED","message":"no"}}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(env.Error).ToNot(BeNil())
		Expect(env.Error.Code).To(Equal("NOT_AUTHORIZED"))
	})

	It("tolerates a nil data member", func() {
		env := &model.Envelope{}
		var out struct{}
		Expect(env.Into(&out)).To(Succeed())
	})
})

var _ = Describe("Identity", func() {
	It("round-trips through Serialize/ParseIdentity", func() {
		i := model.Identity{Id: "i1", Name: "edge01", Type: "Device"}
		raw, err := i.Serialize()
		Expect(err).ToNot(HaveOccurred())

		got, err := model.ParseIdentity(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(i))
	})

	It("compares equal identities as 0", func() {
		a := model.Identity{Id: "i1", Name: "n", Type: "Device"}
		b := a
		Expect(a.Compare(b)).To(Equal(0))
	})

	It("orders by id first", func() {
		a := model.Identity{Id: "a"}
		b := model.Identity{Id: "b"}
		Expect(a.Compare(b)).To(BeNumerically("<", 0))
		Expect(b.Compare(a)).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Session", func() {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	It("round-trips through Serialize/ParseSession", func() {
		s := model.Session{
			Id:        "s1",
			Token:     "tok",
			ExpiresAt: now.Add(time.Hour),
			Identity:  model.Identity{Id: "i1"},
		}
		raw, err := s.Serialize()
		Expect(err).ToNot(HaveOccurred())

		got, err := model.ParseSession(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Compare(s)).To(Equal(0))
	})

	It("reports Expired once ExpiresAt has passed", func() {
		s := model.Session{ExpiresAt: now}
		Expect(s.Expired(now.Add(time.Second))).To(BeTrue())
		Expect(s.Expired(now.Add(-time.Second))).To(BeFalse())
	})

	It("never expires with a zero ExpiresAt", func() {
		s := model.Session{}
		Expect(s.Expired(now)).To(BeFalse())
	})

	It("clones CachedLastActivity independently", func() {
		t := now
		s := model.Session{CachedLastActivity: &t}
		c := s.Clone()
		*c.CachedLastActivity = now.Add(time.Hour)
		Expect(*s.CachedLastActivity).To(Equal(now))
	})
})

var _ = Describe("PostureQuerySet", func() {
	It("round-trips through CBOR", func() {
		p := model.PostureQuerySet{
			PolicyId: "pol1",
			Queries: []model.PostureQuery{
				{Id: "q1", QueryType: "PROCESS", IsPassing: true},
				{Id: "q2", QueryType: "OS", IsPassing: false},
			},
		}
		raw, err := p.Serialize()
		Expect(err).ToNot(HaveOccurred())

		got, err := model.ParsePostureQuerySet(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Compare(p)).To(Equal(0))
	})

	It("compares equal regardless of query order", func() {
		a := model.PostureQuerySet{PolicyId: "p", Queries: []model.PostureQuery{
			{Id: "q1", IsPassing: true}, {Id: "q2", IsPassing: false},
		}}
		b := model.PostureQuerySet{PolicyId: "p", Queries: []model.PostureQuery{
			{Id: "q2", IsPassing: false}, {Id: "q1", IsPassing: true},
		}}
		Expect(a.Compare(b)).To(Equal(0))
	})

	It("clones without aliasing the query slice", func() {
		a := model.PostureQuerySet{Queries: []model.PostureQuery{{Id: "q1"}}}
		c := a.Clone()
		c.Queries[0].Id = "changed"
		Expect(a.Queries[0].Id).To(Equal("q1"))
	})
})

var _ = Describe("Service", func() {
	It("round-trips through Serialize/ParseService", func() {
		s := model.Service{
			Id:                 "svc1",
			Name:               "echo",
			Permission:         model.Permission{Dial: true},
			EncryptionRequired: true,
			Config:             map[string]json.RawMessage{"ziti-tunneler-client.v1": json.RawMessage(`{"hostname":"echo"}`)},
		}
		raw, err := s.Serialize()
		Expect(err).ToNot(HaveOccurred())

		got, err := model.ParseService(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Compare(s)).To(Equal(0))
	})

	It("reports Available per permission bit", func() {
		s := model.Service{Permission: model.Permission{Dial: true, Bind: false}}
		Expect(s.Available(true)).To(BeTrue())
		Expect(s.Available(false)).To(BeFalse())
	})

	It("compares config maps independent of key order and whitespace", func() {
		a := model.Service{Id: "s", Config: map[string]json.RawMessage{
			"a": json.RawMessage(`{"x":1,"y":2}`),
			"b": json.RawMessage(`{"z":3}`),
		}}
		b := model.Service{Id: "s", Config: map[string]json.RawMessage{
			"b": json.RawMessage(`{ "z": 3 }`),
			"a": json.RawMessage(`{ "x": 1, "y": 2 }`),
		}}
		Expect(a.Compare(b)).To(Equal(0))
	})

	It("detects a changed config value", func() {
		a := model.Service{Id: "s", Config: map[string]json.RawMessage{"a": json.RawMessage(`1`)}}
		b := model.Service{Id: "s", Config: map[string]json.RawMessage{"a": json.RawMessage(`2`)}}
		Expect(a.Compare(b)).ToNot(Equal(0))
	})

	It("clones Config and PostureQuerySets without aliasing", func() {
		s := model.Service{
			Config:           map[string]json.RawMessage{"a": json.RawMessage(`1`)},
			PostureQuerySets: []model.PostureQuerySet{{PolicyId: "p"}},
		}
		c := s.Clone()
		c.Config["a"][0] = '9'
		c.PostureQuerySets[0].PolicyId = "changed"
		Expect(string(s.Config["a"])).To(Equal("1"))
		Expect(s.PostureQuerySets[0].PolicyId).To(Equal("p"))
	})
})

var _ = Describe("EdgeRouterRef", func() {
	It("round-trips through Serialize/ParseEdgeRouterRef", func() {
		r := model.EdgeRouterRef{Name: "er1", Hostname: "er1.example.net", Protocols: map[string]string{"tls": "tls:er1.example.net:443"}}
		raw, err := r.Serialize()
		Expect(err).ToNot(HaveOccurred())

		got, err := model.ParseEdgeRouterRef(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Compare(r)).To(Equal(0))
	})

	It("resolves URLFor a known protocol", func() {
		r := model.EdgeRouterRef{Protocols: map[string]string{"tls": "tls:host:443"}}
		u, ok := r.URLFor("tls")
		Expect(ok).To(BeTrue())
		Expect(u).To(Equal("tls:host:443"))
	})

	It("reports false for an unadvertised protocol", func() {
		r := model.EdgeRouterRef{Protocols: map[string]string{"tls": "tls:host:443"}}
		_, ok := r.URLFor("quic")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("NetworkSession", func() {
	It("round-trips through Serialize/ParseNetworkSession", func() {
		n := model.NetworkSession{
			Id: "ns1", Token: "tok", Type: "Dial", ServiceId: "svc1",
			EdgeRouters: []model.EdgeRouterRef{
				{Name: "er1", Protocols: map[string]string{"tls": "tls:er1:443"}},
			},
		}
		raw, err := n.Serialize()
		Expect(err).ToNot(HaveOccurred())

		got, err := model.ParseNetworkSession(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Compare(n)).To(Equal(0))
	})

	It("finds the first router advertising a protocol", func() {
		n := model.NetworkSession{EdgeRouters: []model.EdgeRouterRef{
			{Name: "er1", Protocols: map[string]string{"quic": "q:er1"}},
			{Name: "er2", Protocols: map[string]string{"tls": "t:er2"}},
		}}
		r, ok := n.RouterFor("tls")
		Expect(ok).To(BeTrue())
		Expect(r.Name).To(Equal("er2"))
	})

	It("reports false when no router advertises the protocol", func() {
		n := model.NetworkSession{EdgeRouters: []model.EdgeRouterRef{{Name: "er1", Protocols: map[string]string{"quic": "q"}}}}
		_, ok := n.RouterFor("tls")
		Expect(ok).To(BeFalse())
	})

	It("compares equal regardless of edge-router order", func() {
		a := model.NetworkSession{EdgeRouters: []model.EdgeRouterRef{{Name: "er1"}, {Name: "er2"}}}
		b := model.NetworkSession{EdgeRouters: []model.EdgeRouterRef{{Name: "er2"}, {Name: "er1"}}}
		Expect(a.Compare(b)).To(Equal(0))
	})
})
