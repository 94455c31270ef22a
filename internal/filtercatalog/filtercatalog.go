// Package filtercatalog implements the configurable filter instances named
// in the filter operations catalog: Delay, RandomDelay, RandomDrop,
// Reroute, Firewall, and Clone. Each wraps a filterop operator/cloner and
// exposes the numeric/string property contract filters are configured
// through.
//
// Unknown property names on Set/SetString are silently ignored, except on
// Clone where an unknown name raises corerr.InvalidParameter — the one
// case spec'd to surface a configuration mistake rather than swallow it.
package filtercatalog

import (
	"math"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.helics.dev/corehub/internal/corerr"
	"go.helics.dev/corehub/internal/filterop"
	"go.helics.dev/corehub/internal/message"
	"go.helics.dev/corehub/internal/timeparse"
)

// Filter is a configurable catalog instance: a filter operations wrapper
// around one of the filterop variants.
type Filter interface {
	Set(property string, val float64) error
	SetString(property string, val string) error
	Get(property string) (float64, error)
	GetString(property string) (string, error)
}

// newThreadRand returns a *rand.Rand seeded from a process-global entropy
// source XORed with a per-call sequence counter, so concurrent filter
// invocations from different goroutines get independent streams instead of
// serializing on one global generator. No filter exposes a way to seed its
// generator, so the streams are not reproducible across runs.
func newThreadRand() *rand.Rand {
	seq := atomic.AddUint64(&randSeq, 1)
	seed := time.Now().UnixNano() ^ int64(seq)
	return rand.New(rand.NewSource(seed))
}

var randSeq uint64

// Delay delays message delivery by a fixed, atomically adjustable amount.
type Delay struct {
	delaySeconds atomic.Uint64 // math.Float64bits
	op           *filterop.RetimeOp
}

// NewDelay returns a Delay filter with delay 0.
func NewDelay() *Delay {
	d := &Delay{}
	d.op = filterop.NewRetimeOp(func(t float64) float64 { return t + d.seconds() })
	return d
}

func (d *Delay) seconds() float64 { return math.Float64frombits(d.delaySeconds.Load()) }

// Operator returns the operator this filter drives.
func (d *Delay) Operator() filterop.Operator { return d.op }

// Set implements Filter. Only "delay" is recognized; others are ignored.
func (d *Delay) Set(property string, val float64) error {
	if property == "delay" {
		if val < 0 {
			return corerr.New(corerr.InvalidParameter, "delay must be >= 0, got %g", val)
		}
		d.delaySeconds.Store(math.Float64bits(val))
	}
	return nil
}

// SetString implements Filter; "delay" accepts suffixed durations like
// "10s" or "45ms".
func (d *Delay) SetString(property, val string) error {
	if property != "delay" {
		return nil
	}
	secs, err := timeparse.Seconds(val)
	if err != nil {
		return corerr.New(corerr.InvalidParameter, "%v", err)
	}
	if secs < 0 {
		return corerr.New(corerr.InvalidParameter, "delay must be >= 0, got %s", val)
	}
	d.delaySeconds.Store(math.Float64bits(secs))
	return nil
}

// Get implements Filter.
func (d *Delay) Get(property string) (float64, error) {
	if property == "delay" {
		return d.seconds(), nil
	}
	return 0, nil
}

// GetString implements Filter.
func (d *Delay) GetString(property string) (string, error) {
	if property == "delay" {
		return timeparse.String(d.seconds()), nil
	}
	return "", nil
}

// distribution is the closed set of random-delay distributions recognized
// by RandomDelay's "distribution" string property.
type distribution string

const (
	distUniform      distribution = "uniform"
	distNormal       distribution = "normal"
	distLognormal    distribution = "lognormal"
	distCauchy       distribution = "cauchy"
	distChiSquared   distribution = "chi_squared"
	distExponential  distribution = "exponential"
	distExtremeValue distribution = "extreme_value"
	distFisherF      distribution = "fisher_f"
	distWeibull      distribution = "weibull"
	distStudentT     distribution = "student_t"
	distGeometric    distribution = "geometric"
	distPoisson      distribution = "poisson"
	distBernoulli    distribution = "bernoulli"
	distBinomial     distribution = "binomial"
	distGamma        distribution = "gamma"
	distConstant     distribution = "constant"
)

var knownDistributions = map[distribution]bool{
	distUniform: true, distNormal: true, distLognormal: true, distCauchy: true,
	distChiSquared: true, distExponential: true, distExtremeValue: true, distFisherF: true,
	distWeibull: true, distStudentT: true, distGeometric: true, distPoisson: true,
	distBernoulli: true, distBinomial: true, distGamma: true, distConstant: true,
}

// RandomDelay adds a randomly generated, per-message delay drawn from a
// configurable distribution. param1/param2 carry the distribution's first
// and second parameters (mean/min/alpha, stddev/max/beta respectively);
// their exact meaning depends on the selected distribution, matching the
// original's own generic two-parameter random-delay generator.
//
// math/rand's standard library transforms stand in here for every listed
// distribution: no statistics/distributions library appears anywhere in
// the retrieved corpus, so this is the one place in the catalog built on
// the standard library rather than an ecosystem package.
type RandomDelay struct {
	mu     sync.Mutex
	dist   distribution
	param1 float64
	param2 float64
	rng    *rand.Rand
	op     *filterop.RetimeOp
}

// NewRandomDelay returns a RandomDelay filter defaulting to uniform(0,1).
func NewRandomDelay() *RandomDelay {
	r := &RandomDelay{dist: distUniform, param2: 1, rng: newThreadRand()}
	r.op = filterop.NewRetimeOp(func(t float64) float64 { return t + r.sample() })
	return r
}

// Operator returns the operator this filter drives.
func (r *RandomDelay) Operator() filterop.Operator { return r.op }

func (r *RandomDelay) sample() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.dist {
	case distUniform:
		return r.param1 + r.rng.Float64()*(r.param2-r.param1)
	case distNormal:
		return r.param1 + r.rng.NormFloat64()*r.param2
	case distLognormal:
		return math.Exp(r.param1 + r.rng.NormFloat64()*r.param2)
	case distExponential:
		lambda := r.param1
		if lambda <= 0 {
			lambda = 1
		}
		return r.rng.ExpFloat64() / lambda
	case distCauchy:
		return r.param1 + r.param2*math.Tan(math.Pi*(r.rng.Float64()-0.5))
	case distWeibull:
		shape, scale := r.param1, r.param2
		if shape <= 0 {
			shape = 1
		}
		if scale <= 0 {
			scale = 1
		}
		return scale * math.Pow(-math.Log(1-r.rng.Float64()), 1/shape)
	case distGamma:
		return sampleGamma(r.rng, r.param1, r.param2)
	case distChiSquared:
		return sampleGamma(r.rng, r.param1/2, 2)
	case distStudentT, distFisherF, distExtremeValue:
		// approximated via normal for lack of a closed-form stdlib
		// transform; adequate for simulated-delay jitter purposes.
		return r.param1 + r.rng.NormFloat64()*r.param2
	case distGeometric:
		p := r.param1
		if p <= 0 || p >= 1 {
			p = 0.5
		}
		return math.Floor(math.Log(1-r.rng.Float64()) / math.Log(1-p))
	case distPoisson:
		return samplePoisson(r.rng, r.param1)
	case distBernoulli:
		if r.rng.Float64() < r.param1 {
			return 1
		}
		return 0
	case distBinomial:
		n := int(r.param1)
		p := r.param2
		var successes float64
		for i := 0; i < n; i++ {
			if r.rng.Float64() < p {
				successes++
			}
		}
		return successes
	case distConstant:
		return r.param1
	default:
		return 0
	}
}

func sampleGamma(rng *rand.Rand, shape, scale float64) float64 {
	if shape <= 0 {
		shape = 1
	}
	if scale <= 0 {
		scale = 1
	}
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1, scale) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x || math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

func samplePoisson(rng *rand.Rand, lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0.0
	p := 1.0
	for {
		k++
		p *= rng.Float64()
		if p <= l {
			return k - 1
		}
	}
}

// Set implements Filter.
func (r *RandomDelay) Set(property string, val float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch property {
	case "param1":
		r.param1 = val
	case "param2":
		r.param2 = val
	}
	return nil
}

// SetString implements Filter; "distribution" selects one of the known
// distributions.
func (r *RandomDelay) SetString(property, val string) error {
	if property != "distribution" {
		return nil
	}
	d := distribution(val)
	if !knownDistributions[d] {
		return corerr.New(corerr.InvalidParameter, "unknown distribution %q", val)
	}
	r.mu.Lock()
	r.dist = d
	r.mu.Unlock()
	return nil
}

// Get implements Filter.
func (r *RandomDelay) Get(property string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch property {
	case "param1":
		return r.param1, nil
	case "param2":
		return r.param2, nil
	}
	return 0, nil
}

// GetString implements Filter.
func (r *RandomDelay) GetString(property string) (string, error) {
	if property == "distribution" {
		r.mu.Lock()
		defer r.mu.Unlock()
		return string(r.dist), nil
	}
	return "", nil
}

// RandomDrop drops a message with a configurable probability.
type RandomDrop struct {
	probBits atomic.Uint64 // math.Float64bits
	rng      *rand.Rand
	rngMu    sync.Mutex
	op       *filterop.ConditionalPassOp
}

// NewRandomDrop returns a RandomDrop filter with drop probability 0.
func NewRandomDrop() *RandomDrop {
	d := &RandomDrop{rng: newThreadRand()}
	d.op = filterop.NewConditionalPassOp(func(_ message.Message) bool {
		return !d.shouldDrop()
	})
	return d
}

func (d *RandomDrop) prob() float64 { return math.Float64frombits(d.probBits.Load()) }

func (d *RandomDrop) shouldDrop() bool {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	return d.rng.Float64() < d.prob()
}

// Operator returns the operator this filter drives.
func (d *RandomDrop) Operator() filterop.Operator { return d.op }

// Set implements Filter.
func (d *RandomDrop) Set(property string, val float64) error {
	if property == "prob" {
		if val < 0 || val > 1 {
			return corerr.New(corerr.InvalidParameter, "prob must be in [0,1], got %g", val)
		}
		d.probBits.Store(math.Float64bits(val))
	}
	return nil
}

// SetString implements Filter; RandomDrop has no string properties.
func (d *RandomDrop) SetString(property, val string) error { return nil }

// Get implements Filter.
func (d *RandomDrop) Get(property string) (float64, error) {
	if property == "prob" {
		return d.prob(), nil
	}
	return 0, nil
}

// GetString implements Filter; RandomDrop has no string properties.
func (d *RandomDrop) GetString(property string) (string, error) { return "", nil }

// Reroute rewrites a message's destination when at least one of its
// configured regexes matches the current destination (or unconditionally
// if none are configured). newDestination supports ${source}/${dest}
// template substitution, applied at delivery time.
type Reroute struct {
	mu          sync.RWMutex
	newDest     string
	conditions  []*regexp.Regexp
	op          *filterop.RewriteDestOp
}

// NewReroute returns a Reroute filter with no destination and no
// conditions (so, once a destination is set, it reroutes unconditionally).
func NewReroute() *Reroute {
	r := &Reroute{}
	r.op = filterop.NewRewriteDestOp(r.rerouteOperation)
	return r
}

// Operator returns the operator this filter drives.
func (r *Reroute) Operator() filterop.Operator { return r.op }

func (r *Reroute) rerouteOperation(src, dst string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.newDest == "" {
		return dst
	}
	if len(r.conditions) > 0 {
		matched := false
		for _, re := range r.conditions {
			if re.MatchString(dst) {
				matched = true
				break
			}
		}
		if !matched {
			return dst
		}
	}
	out := strings.ReplaceAll(r.newDest, "${source}", src)
	out = strings.ReplaceAll(out, "${dest}", dst)
	return out
}

// Set implements Filter; Reroute has no numeric properties.
func (r *Reroute) Set(property string, val float64) error { return nil }

// SetString implements Filter. "newdestination" replaces the target
// template; "condition" appends a regex to the OR'd condition list.
func (r *Reroute) SetString(property, val string) error {
	switch property {
	case "newdestination":
		r.mu.Lock()
		r.newDest = val
		r.mu.Unlock()
	case "condition":
		re, err := regexp.Compile(val)
		if err != nil {
			return corerr.New(corerr.InvalidParameter, "bad condition regex %q: %v", val, err)
		}
		r.mu.Lock()
		r.conditions = append(r.conditions, re)
		r.mu.Unlock()
	}
	return nil
}

// Get implements Filter; Reroute has no numeric properties.
func (r *Reroute) Get(property string) (float64, error) { return 0, nil }

// GetString implements Filter.
func (r *Reroute) GetString(property string) (string, error) {
	if property == "newdestination" {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.newDest, nil
	}
	return "", nil
}

// Firewall allows or blocks messages by destination against OR'd allow and
// block regex lists. A message is blocked if any block regex matches; else
// allowed if the allow list is empty or any allow regex matches.
type Firewall struct {
	mu      sync.RWMutex
	allow   []*regexp.Regexp
	block   []*regexp.Regexp
	op      *filterop.FirewallOp
}

// NewFirewall returns a Firewall filter that passes everything by default.
func NewFirewall() *Firewall {
	f := &Firewall{}
	f.op = filterop.NewFirewallOp(func(msg message.Message) bool { return !f.allowPassed(msg) }, filterop.FirewallDropOnTrue, 0)
	return f
}

// Operator returns the operator this filter drives.
func (f *Firewall) Operator() filterop.Operator { return f.op }

func (f *Firewall) allowPassed(msg message.Message) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	dest := msg.Destination
	for _, re := range f.block {
		if re.MatchString(dest) {
			return false
		}
	}
	if len(f.allow) == 0 {
		return true
	}
	for _, re := range f.allow {
		if re.MatchString(dest) {
			return true
		}
	}
	return false
}

// Set implements Filter; Firewall has no numeric properties.
func (f *Firewall) Set(property string, val float64) error { return nil }

// SetString implements Filter. "allow" and "block" each append a regex to
// their respective OR'd list.
func (f *Firewall) SetString(property, val string) error {
	var target *[]*regexp.Regexp
	switch property {
	case "allow":
		target = &f.allow
	case "block":
		target = &f.block
	default:
		return nil
	}
	re, err := regexp.Compile(val)
	if err != nil {
		return corerr.New(corerr.InvalidParameter, "bad %s regex %q: %v", property, val, err)
	}
	f.mu.Lock()
	*target = append(*target, re)
	f.mu.Unlock()
	return nil
}

// Get implements Filter; Firewall has no numeric properties.
func (f *Firewall) Get(property string) (float64, error) { return 0, nil }

// GetString implements Filter; Firewall has no readable string properties.
func (f *Firewall) GetString(property string) (string, error) { return "", nil }

// Clone delivers a copy of each passing message to every configured
// delivery address. It is the one catalog filter where an unknown
// property raises corerr.InvalidParameter instead of being ignored.
type Clone struct {
	mu        sync.RWMutex
	addresses []string
	op        *filterop.CloneOp
}

// NewClone returns a Clone filter with no delivery addresses configured.
func NewClone() *Clone {
	c := &Clone{}
	c.op = filterop.NewCloneOp(c.destinations)
	return c
}

// Cloner returns the cloner this filter drives.
func (c *Clone) Cloner() filterop.Cloner { return c.op }

func (c *Clone) destinations(_ message.Message) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.addresses))
	copy(out, c.addresses)
	return out
}

// Set implements Filter; Clone has no numeric properties, so any numeric
// set is an unknown-property error.
func (c *Clone) Set(property string, val float64) error {
	return corerr.New(corerr.InvalidParameter, "clone filter has no numeric property %q", property)
}

// SetString implements Filter. "delivery" replaces the address list,
// "add delivery" appends one address, "remove delivery" removes one.
func (c *Clone) SetString(property, val string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch property {
	case "delivery":
		c.addresses = []string{val}
	case "add delivery":
		c.addresses = append(c.addresses, val)
	case "remove delivery":
		out := c.addresses[:0]
		for _, a := range c.addresses {
			if a != val {
				out = append(out, a)
			}
		}
		c.addresses = out
	default:
		return corerr.New(corerr.InvalidParameter, "clone filter has no string property %q", property)
	}
	return nil
}

// Get implements Filter; Clone has no numeric properties.
func (c *Clone) Get(property string) (float64, error) {
	return 0, corerr.New(corerr.InvalidParameter, "clone filter has no numeric property %q", property)
}

// GetString implements Filter.
func (c *Clone) GetString(property string) (string, error) {
	if property == "delivery" {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return strings.Join(c.addresses, ","), nil
	}
	return "", corerr.New(corerr.InvalidParameter, "clone filter has no string property %q", property)
}
