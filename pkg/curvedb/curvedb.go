// Package curvedb loads named domain parameters from an embedded snapshot
// of the std-curves database (https://github.com/J08nY/std-curves), the
// same data source pyecsca/ec/curves.py reads at runtime via
// pkg_resources. Go has no runtime resource loader, so the snapshot is
// baked into the binary with embed.FS. Parsed curves are memoized in
// memory per DB; an optional bbolt file caches the raw per-category JSON
// bytes across runs.
package curvedb

import (
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"path"
	"strings"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/mod"
	bolt "go.etcd.io/bbolt"
)

//go:embed data/std
var std embed.FS

// hexBig decodes a "0x..."-prefixed hex string into a *big.Int, the Go
// analogue of the original's int(s, 16) calls on std-curves' JSON fields.
type hexBig struct{ *big.Int }

func (h *hexBig) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("curvedb: bad hex field %q: %w", s, err)
	}
	h.Int = new(big.Int).SetBytes(raw)
	return nil
}

type rawCurve struct {
	Name  string `json:"name"`
	Field struct {
		Type string `json:"type"`
		P    hexBig `json:"p"`
	} `json:"field"`
	Order    hexBig `json:"order"`
	Cofactor hexBig `json:"cofactor"`
	Form     string `json:"form"`
	Params   map[string]hexBig `json:"params"`
	Generator struct {
		X hexBig `json:"x"`
		Y hexBig `json:"y"`
	} `json:"generator"`
}

type rawCategory struct {
	Curves []rawCurve `json:"curves"`
}

// DB reads named curves out of the embedded std-curves snapshot, caching
// parsed DomainParameters in memory and, optionally, the raw JSON bytes in
// a bbolt database on disk so a later read of the same category skips the
// embed.FS read; the JSON is still decoded on every memo miss.
type DB struct {
	mu     sync.Mutex
	memo   map[string]*curve.DomainParameters
	cache  *bolt.DB
	bucket []byte
}

// Open builds a DB. If cachePath is non-empty, a bbolt database is opened
// (created if missing) at that path to cache the raw per-category JSON
// blobs across process runs.
func Open(cachePath string) (*DB, error) {
	db := &DB{memo: map[string]*curve.DomainParameters{}, bucket: []byte("std-curves-json")}
	if cachePath == "" {
		return db, nil
	}
	bdb, err := bolt.Open(cachePath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("curvedb: opening cache: %w", err)
	}
	if err := bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(db.bucket)
		return err
	}); err != nil {
		bdb.Close()
		return nil, fmt.Errorf("curvedb: initializing cache bucket: %w", err)
	}
	db.cache = bdb
	return db, nil
}

func (db *DB) Close() error {
	if db.cache != nil {
		return db.cache.Close()
	}
	return nil
}

func (db *DB) categoryJSON(category string) ([]byte, error) {
	if db.cache != nil {
		var cached []byte
		_ = db.cache.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(db.bucket).Get([]byte(category)); v != nil {
				cached = append([]byte{}, v...)
			}
			return nil
		})
		if cached != nil {
			return cached, nil
		}
	}

	data, err := std.ReadFile(path.Join("data", "std", category, "curves.json"))
	if err != nil {
		return nil, fmt.Errorf("curvedb: category %q not found: %w", category, err)
	}

	if db.cache != nil {
		_ = db.cache.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(db.bucket).Put([]byte(category), data)
		})
	}
	return data, nil
}

// Get retrieves the named curve from category in the given coordinate
// system. Only "affine" is supported directly here: ported curves carry no
// non-affine EFD coordinate data in this snapshot, matching pkg/curve's
// own textbook-affine-only base arithmetic (see DESIGN.md).
func (db *DB) Get(category, name, coords string) (*curve.DomainParameters, error) {
	key := category + "/" + name + "/" + coords
	db.mu.Lock()
	if dp, ok := db.memo[key]; ok {
		db.mu.Unlock()
		return dp, nil
	}
	db.mu.Unlock()

	data, err := db.categoryJSON(category)
	if err != nil {
		return nil, err
	}
	var cat rawCategory
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("curvedb: parsing category %q: %w", category, err)
	}

	var found *rawCurve
	for i := range cat.Curves {
		if cat.Curves[i].Name == name {
			found = &cat.Curves[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("curvedb: curve %q not found in category %q", name, category)
	}
	if found.Field.Type != "Prime" {
		return nil, fmt.Errorf("curvedb: %s: only prime fields are supported", name)
	}
	if coords != "affine" {
		return nil, fmt.Errorf("curvedb: %s: only affine coordinates are supported by this snapshot", name)
	}

	var model *curve.Model
	switch found.Form {
	case "Weierstrass":
		model = curve.ShortWeierstrass()
	case "Montgomery":
		model = curve.Montgomery()
	case "Edwards":
		model = curve.Edwards()
	case "TwistedEdwards":
		model = curve.TwistedEdwards()
	default:
		return nil, fmt.Errorf("curvedb: %s: unknown curve form %q", name, found.Form)
	}

	field := found.Field.P.Int
	params := make(map[string]mod.Mod, len(found.Params))
	for k, v := range found.Params {
		m, err := mod.New(v.Int, field)
		if err != nil {
			return nil, fmt.Errorf("curvedb: %s: parameter %s: %w", name, k, err)
		}
		params[k] = m
	}

	affine := curve.Affine(model)
	neutral, err := neutralPoint(affine, field)
	if err != nil {
		return nil, err
	}
	ec, err := curve.NewEllipticCurve(model, affine, field, params, neutral)
	if err != nil {
		return nil, fmt.Errorf("curvedb: %s: %w", name, err)
	}

	gx, err := mod.New(found.Generator.X.Int, field)
	if err != nil {
		return nil, err
	}
	gy, err := mod.New(found.Generator.Y.Int, field)
	if err != nil {
		return nil, err
	}
	generator, err := curve.NewPoint(affine, map[string]mod.Mod{"x": gx, "y": gy})
	if err != nil {
		return nil, fmt.Errorf("curvedb: %s: generator: %w", name, err)
	}

	dp := &curve.DomainParameters{
		Curve:     ec,
		Generator: generator,
		Order:     found.Order.Int,
		Cofactor:  found.Cofactor.Int,
		Name:      name,
		Category:  category,
	}

	db.mu.Lock()
	db.memo[key] = dp
	db.mu.Unlock()
	return dp, nil
}

// Categories lists the std-curves category directories baked into the
// binary (e.g. "secg", "toy").
func Categories() ([]string, error) {
	entries, err := std.ReadDir("data/std")
	if err != nil {
		return nil, fmt.Errorf("curvedb: listing categories: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// List names every curve in category, for "ecsim curve list --category".
func (db *DB) List(category string) ([]string, error) {
	data, err := db.categoryJSON(category)
	if err != nil {
		return nil, err
	}
	var cat rawCategory
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("curvedb: parsing category %q: %w", category, err)
	}
	names := make([]string, len(cat.Curves))
	for i, c := range cat.Curves {
		names[i] = c.Name
	}
	return names, nil
}

// neutralPoint builds a placeholder affine neutral element at (0,0). The
// textbook affine addition/doubling laws this module works with have a
// genuine pole at the point at infinity (see pkg/curve/curve_test.go), so
// this sentinel is not meant to be fed through a formula directly: a
// multiplier with ShortCircuit set checks Point.Equal(Neutral) before
// calling the underlying add/dbl formula (a Ladder built with a dbl
// formula does not set it).
func neutralPoint(affine *curve.CoordinateModel, field *big.Int) (*curve.Point, error) {
	zero, err := mod.New(big.NewInt(0), field)
	if err != nil {
		return nil, err
	}
	return curve.NewPoint(affine, map[string]mod.Mod{"x": zero, "y": zero})
}

// VerifySecp256k1 cross-checks the embedded secp256k1 field prime and
// group order against decred's secp256k1 package, the same curve implementation neo-go uses
// for its P2PKH keys — grounding the snapshot's constants in a maintained
// library rather than trusting the bundled JSON blindly.
func VerifySecp256k1(dp *curve.DomainParameters) error {
	want := secp256k1.S256().Params().P
	if dp.Curve.Field.Cmp(want) != 0 {
		return fmt.Errorf("curvedb: secp256k1 field prime mismatch: got %s want %s", dp.Curve.Field, want)
	}
	wantN := secp256k1.S256().Params().N
	if dp.Order.Cmp(wantN) != 0 {
		return fmt.Errorf("curvedb: secp256k1 order mismatch: got %s want %s", dp.Order, wantN)
	}
	return nil
}
