package data

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/lovelite/tilecat/internal/tileprop"
)

// ReadLua evaluates a Tiled Lua export and returns one table per tileset.
// Both a tileset export (`return { name = ..., tiles = {...} }`) and a map
// export (`return { tilesets = {...} }`) are accepted.
//
// The chunk runs without the standard libraries and is stopped when ctx is
// done.
func ReadLua(ctx context.Context, raw []byte) ([]tileprop.Table, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: true, CallStackSize: 64})
	defer vm.Close()
	vm.SetContext(ctx)

	if err := vm.DoString(string(raw)); err != nil {
		return nil, err
	}
	root, ok := vm.Get(-1).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("chunk must return a table, got %s", vm.Get(-1).Type())
	}

	if tilesets, ok := root.RawGetString("tilesets").(*lua.LTable); ok {
		var out []tileprop.Table
		for i := 1; i <= tilesets.Len(); i++ {
			ts, ok := tilesets.RawGetInt(i).(*lua.LTable)
			if !ok {
				return nil, fmt.Errorf("tilesets[%d] is not a table", i)
			}
			t, err := luaTileset(ts)
			if err != nil {
				return nil, fmt.Errorf("tilesets[%d]: %w", i, err)
			}
			out = append(out, t)
		}
		return out, nil
	}

	t, err := luaTileset(root)
	if err != nil {
		return nil, err
	}
	return []tileprop.Table{t}, nil
}

func luaTileset(ts *lua.LTable) (tileprop.Table, error) {
	t := tileprop.Table{ID: lStr(ts, "name")}
	tiles, ok := ts.RawGetString("tiles").(*lua.LTable)
	if !ok {
		return t, nil
	}
	for i := 1; i <= tiles.Len(); i++ {
		tile, ok := tiles.RawGetInt(i).(*lua.LTable)
		if !ok {
			return t, fmt.Errorf("tiles[%d] is not a table", i)
		}
		id, ok := tile.RawGetString("id").(lua.LNumber)
		if !ok || float64(id) != math.Trunc(float64(id)) {
			return t, fmt.Errorf("tiles[%d]: missing or non-integer id", i)
		}
		props, ok := tile.RawGetString("properties").(*lua.LTable)
		if !ok {
			continue
		}

		rec := tileprop.Record{TileID: int(id)}
		props.ForEach(func(k, v lua.LValue) {
			rec.Properties = append(rec.Properties, luaProperty(k.String(), v))
		})
		// hash iteration order is not stable
		sort.Slice(rec.Properties, func(a, b int) bool {
			return rec.Properties[a].Name < rec.Properties[b].Name
		})
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// luaProperty infers the type tag: Lua has one number type, so integral
// values are ints and the rest floats. Unsupported values keep their Lua
// type name as tag and fail to decode on their own tile.
func luaProperty(name string, v lua.LValue) tileprop.Property {
	switch lv := v.(type) {
	case lua.LBool:
		return tileprop.Property{Name: name, Type: "bool", Value: strconv.FormatBool(bool(lv))}
	case lua.LNumber:
		f := float64(lv)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return tileprop.Property{Name: name, Type: "int", Value: strconv.FormatInt(int64(f), 10)}
		}
		return tileprop.Property{Name: name, Type: "float", Value: strconv.FormatFloat(f, 'f', -1, 64)}
	case lua.LString:
		return tileprop.Property{Name: name, Type: "string", Value: string(lv)}
	}
	return tileprop.Property{Name: name, Type: v.Type().String(), Value: v.String()}
}

func lStr(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}
