// SPDX-License-Identifier: MPL-2.0

// Package compose defines the contract between the build driver and the shader
// composition engine, and provides the production engine built on the naga
// shader compiler.
//
// The driver only talks to the engine through small capability interfaces:
// ModuleSet (is a module present, add a module), Composer (compose an entry
// shader), Validator and Encoder. Tests substitute the in-memory engine from
// the composetest package.
//
// Module sources use a small directive language:
//
//	#define_import_path my_lib::math
//	#import my_lib::lighting
//	#import "util.wgsl" as util
//	#import my_lib::consts::{PI, TAU}
//	#ifdef SHADOWS ... #else ... #endif
//	#if QUALITY >= 2 ... #endif
//	#define RADIUS 4
//	let r = #{RADIUS};
package compose
