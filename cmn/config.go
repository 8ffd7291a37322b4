package cmn

import (
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/pando-hammer/pandohammer/addr"
)

// LogLevel mirrors spec.md §6's LOG_LEVEL variable.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// Config is the bootstrap-derived topology and memory budget for one PXN
// process (C14). Named Config rather than GCO ("Global Config Owner") to
// avoid carrying the teacher's own vocabulary verbatim. It is a plain
// value, not a package-level singleton: FromEnv returns one and callers
// pass it on (cmd/pandohammer hands it to every pxn.New).
type Config struct {
	NumCores int64 // worker cores per pod (NUM_CORES); scheduler column is implicit, +1
	NumHarts int64 // harts per core (NUM_HARTS)
	L1SPHart int64 // bytes (L1SP_HART)
	L2SPPod  int64 // bytes (L2SP_POD)
	MainNode int64 // bytes (MAIN_NODE)
	LogLevel LogLevel
}

// Default matches the defaults table in spec.md §6.
func Default() Config {
	return Config{
		NumCores: 8,
		NumHarts: 16,
		L1SPHart: 8 * KiB,
		L2SPPod:  32 * MiB,
		MainNode: 4 * GiB,
		LogLevel: LogError,
	}
}

const (
	KiB = 1 << 10
	MiB = 1 << 20
	GiB = 1 << 30
)

// FromEnv parses the environment variables from spec.md §6 over the
// defaults, returning OutOfBounds if a value cannot fit in the
// corresponding address field (addr.CoreAxisBits for NUM_CORES, the
// per-tier offset widths for the byte budgets).
func FromEnv() (Config, error) {
	c := Default()

	if v, ok := os.LookupEnv("NUM_CORES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, errors.Wrap(err, "NUM_CORES")
		}
		c.NumCores = n
	}
	if v, ok := os.LookupEnv("NUM_HARTS"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, errors.Wrap(err, "NUM_HARTS")
		}
		c.NumHarts = n
	}
	if v, ok := os.LookupEnv("L1SP_HART"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, errors.Wrap(err, "L1SP_HART")
		}
		c.L1SPHart = n
	}
	if v, ok := os.LookupEnv("L2SP_POD"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, errors.Wrap(err, "L2SP_POD")
		}
		c.L2SPPod = n
	}
	if v, ok := os.LookupEnv("MAIN_NODE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, errors.Wrap(err, "MAIN_NODE")
		}
		c.MainNode = n
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch LogLevel(v) {
		case LogInfo, LogWarning, LogError:
			c.LogLevel = LogLevel(v)
		default:
			return c, errors.Errorf("LOG_LEVEL: unknown level %q", v)
		}
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks every field's bound against the address bit widths it
// must fit in, per spec.md §6 ("bounds derived from the bitranges in §3").
func (c Config) Validate() error {
	// The scheduler column occupies an implicit extra core column
	// (supplemented feature 2 in SPEC_FULL.md §3), so the x-axis field
	// must hold NumCores+1 distinct values.
	if c.NumCores < 1 || c.NumCores+1 > 1<<addr.CoreAxisBits {
		return Status(OutOfBounds)
	}
	if c.NumHarts < 1 {
		return Status(OutOfBounds)
	}
	if c.L1SPHart < 0 || c.L1SPHart > 1<<addr.L1SPOffsetBits {
		return Status(OutOfBounds)
	}
	if c.L2SPPod < 0 || c.L2SPPod > 1<<addr.L2SPOffsetBits {
		return Status(OutOfBounds)
	}
	if c.MainNode < 0 || c.MainNode > 1<<addr.MainOffsetBits {
		return Status(OutOfBounds)
	}
	return nil
}
