// Package normalisers provides loaders that extract text from course
// material files. Each loader knows how to read a set of file extensions.
//
// Loaders are registered with a Registry at startup; files whose extension
// has no dedicated loader are read as plain text.
package normalisers
