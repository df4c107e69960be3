package msl

import "strings"

// reservedWords are C++14 keywords, Metal keywords and attribute names, and
// identifiers the generated code relies on.
var reservedWords = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(`
		alignas alignof and and_eq asm auto bitand bitor bool break case catch
		char char16_t char32_t class compl const constexpr const_cast continue
		decltype default delete do double dynamic_cast else enum explicit export
		extern false float for friend goto if inline int long mutable namespace
		new noexcept not not_eq nullptr operator or or_eq private protected public
		register reinterpret_cast return short signed sizeof static static_assert
		static_cast struct switch template this thread_local throw true try
		typedef typeid typename union unsigned using virtual void volatile
		wchar_t while xor xor_eq override final

		kernel vertex fragment compute device constant thread threadgroup
		threadgroup_imageblock ray_data object_data stage_in patch
		half uint ushort uchar size_t ptrdiff_t atomic_int atomic_uint
		sampler texture1d texture2d texture3d texturecube depth2d
		metal std main

		INFINITY NAN
	`) {
		m[w] = struct{}{}
	}
	return m
}()

// isReserved reports whether name cannot be used as an MSL identifier.
func isReserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

// escapeName makes name a valid MSL identifier. Names with a leading double
// underscore are reserved to the implementation in C++.
func escapeName(name string) string {
	if name == "" {
		return "unnamed"
	}
	if strings.HasPrefix(name, "__") {
		name = strings.TrimLeft(name, "_")
		if name == "" {
			return "unnamed"
		}
	}
	if isReserved(name) {
		return name + "_"
	}
	return name
}
