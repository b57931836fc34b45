// Package compiler turns CUE operation definitions into circuit ops.
//
// Definitions live under the op field:
//
//	op: Bell: {
//		signature: [{name: "a", dtype: "QBit"}, {name: "b", dtype: "QBit"}]
//		steps: [
//			{gate: "H", in: {q: "a"}, out: {q: "a"}},
//			{gate: "CNOT", in: {ctrl: "a", target: "b"}, out: {ctrl: "a", target: "b"}},
//		]
//	}
//
// Each step names a library gate, a bookkeeping op or another definition,
// and maps its ports to wire variables. Left ports of the signature start
// out as variables of the same name; right ports are read back the same
// way unless outputs says otherwise. Calls between definitions must not
// form cycles.
//
// A step with ctrl keeps the port names of the op it controls. The added
// control is written ctrl (ctrl0, ctrl1, ... for several), or ctrl_1 when
// the op already has a ctrl port, whichever controlled op is built:
//
//	{gate: "X", ctrl: [1], in: {ctrl: "c", q: "t"}, out: {ctrl: "c", q: "t"}}
//	{gate: "CNOT", ctrl: [1], in: {ctrl_1: "c", ctrl: "a", target: "t"}}
package compiler
