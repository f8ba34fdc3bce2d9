package dynpb

import "github.com/simon-paris/dynpb/internal/tdp"

// compileProgram builds the per-type dispatch table described in spec.md
// section 4.2 from a fully resolved Type. It is invoked lazily, at most
// once per Type, by Root.ProgramAt.
func compileProgram(t *Type) *tdp.Program {
	prog := tdp.NewProgram(t.FullName(), t.IsGroup)

	for _, f := range t.Fields {
		compileField(prog, f)
	}

	return prog
}

func compileField(prog *tdp.Program, f *Field) {
	oneofIdx := f.OneofIndex

	switch {
	case f.IsMap:
		compileMapField(prog, f, oneofIdx)

	case f.Rule == Required:
		prog.AddRequired(f.ID, f.Name)
		compileSingular(prog, f, oneofIdx)

	case f.Rule == Repeated:
		compileRepeated(prog, f, oneofIdx)

	default: // Singular, Optional
		compileSingular(prog, f, oneofIdx)
	}
}

func compileSingular(prog *tdp.Program, f *Field, oneofIdx int) {
	switch {
	case f.resolvedMsg != nil && f.IsGroup:
		action := &tdp.FieldAction{
			Kind: tdp.ActionGroup, TypeIndex: f.resolvedMsg.Index(),
			FieldID: f.ID, OneofIdx: oneofIdx,
		}
		prog.Tags[tdp.Tag(f.ID, tdp.WireStartGroup)] = action

	case f.resolvedMsg != nil:
		action := &tdp.FieldAction{
			Kind: tdp.ActionMessage, TypeIndex: f.resolvedMsg.Index(),
			FieldID: f.ID, OneofIdx: oneofIdx,
		}
		prog.Tags[tdp.Tag(f.ID, tdp.WireBytes)] = action

	default:
		action := &tdp.FieldAction{
			Kind: tdp.ActionScalar, Prim: f.basicKind,
			FieldID: f.ID, OneofIdx: oneofIdx,
		}
		prog.Tags[tdp.Tag(f.ID, f.basicKind.BasicWireType())] = action
	}
}

func compileRepeated(prog *tdp.Program, f *Field, oneofIdx int) {
	switch {
	case f.resolvedMsg != nil && f.IsGroup:
		action := &tdp.FieldAction{
			Kind: tdp.ActionRepeatedGroup, TypeIndex: f.resolvedMsg.Index(),
			FieldID: f.ID, OneofIdx: -1,
		}
		prog.Tags[tdp.Tag(f.ID, tdp.WireStartGroup)] = action

	case f.resolvedMsg != nil:
		action := &tdp.FieldAction{
			Kind: tdp.ActionRepeatedMessage, TypeIndex: f.resolvedMsg.Index(),
			FieldID: f.ID, OneofIdx: -1,
		}
		prog.Tags[tdp.Tag(f.ID, tdp.WireBytes)] = action

	default:
		unpacked := &tdp.FieldAction{
			Kind: tdp.ActionRepeatedScalar, Prim: f.basicKind,
			FieldID: f.ID, OneofIdx: -1,
		}
		prog.Tags[tdp.Tag(f.ID, f.basicKind.BasicWireType())] = unpacked

		// Both wire representations must be accepted regardless of which
		// the schema advertised (spec.md section 4.2), so a packable
		// primitive always gets a second dispatch entry for the packed
		// form alongside its unpacked one.
		if f.basicKind.Packable() {
			packed := &tdp.FieldAction{
				Kind: tdp.ActionPackedScalar, Prim: f.basicKind,
				FieldID: f.ID, OneofIdx: -1,
			}
			prog.Tags[tdp.Tag(f.ID, tdp.WireBytes)] = packed
		}
	}
}

func compileMapField(prog *tdp.Program, f *Field, oneofIdx int) {
	keyKind, ok := primitiveKinds[f.KeyType]
	if !ok {
		keyKind = tdp.KindInt32
	}

	var valueAction *tdp.FieldAction
	switch {
	case f.resolvedMsg != nil:
		valueAction = &tdp.FieldAction{Kind: tdp.ActionMessage, TypeIndex: f.resolvedMsg.Index()}
	default:
		// Enum-typed map values decode like int32, same as any other enum
		// field; f.basicKind is already set to KindInt32 in that case by
		// resolve().
		valueAction = &tdp.FieldAction{Kind: tdp.ActionScalar, Prim: f.basicKind}
	}

	action := &tdp.FieldAction{
		Kind: tdp.ActionMap, FieldID: f.ID, OneofIdx: oneofIdx,
		MapKey: keyKind, MapValue: valueAction,
	}
	prog.Tags[tdp.Tag(f.ID, tdp.WireBytes)] = action
}
