// Package main provides localization for the vadecode CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Device":   "デバイス",
		"Decoding": "デコード",
		"Output":   "出力",
		"Logging":  "ログ",

		// Root command
		"Hardware accelerated video decoding tools": "ハードウェアアクセラレーションによる動画デコードツール",
		"YAML configuration file":                   "YAML設定ファイル",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Device flags
		"Device driver (sim, vaapi)":                   "デバイスドライバ（sim, vaapi）",
		"DRM render node for the vaapi driver":         "vaapiドライバが使用するDRMレンダーノード",
		"Simulated completion latency in milliseconds": "シミュレートするデコード完了までの遅延（ミリ秒）",

		// Decoding flags
		"Output format (nv12, i420, i010, ...)":           "出力フォーマット（nv12, i420, i010, ...）",
		"Wait for every picture right after submission":   "ピクチャの投入ごとに完了を待機",
		"Surfaces to allocate beyond the stream minimum":  "ストリームの最小数に加えて確保するサーフェス数",
		"Distance between pictures without references":    "参照を持たないピクチャの間隔",
		"Create a new context on every resolution change": "解像度変更のたびにコンテキストを作り直す",

		// Output flags
		"Raw output file":                       "RAW出力ファイル",
		"Write each frame to its own file":      "フレームごとに別ファイルへ書き込む",
		"Print checksums (none, frame, stream)": "チェックサムを表示（none, frame, stream）",
		"Directory for BMP previews":            "BMPプレビューの出力ディレクトリ",
		"Preview width in pixels":               "プレビューの幅（ピクセル）",

		// Probe command
		"List decode profiles and image formats of a device": "デバイスのデコードプロファイルと画像フォーマットを一覧表示",

		// Probe output
		"Vendor":        "ベンダー",
		"Profiles":      "プロファイル一覧",
		"Image formats": "画像フォーマット",

		// SPS command
		"Parse the sequence parameter set of an Annex B stream or MP4 file": "Annex BストリームまたはMP4ファイルのSPSを解析",
		"Annex B stream codec (h264, hevc)":                                 "Annex Bストリームのコーデック（h264, hevc）",
		"Decode this many synthetic pictures with the parsed parameters":    "解析したパラメータで指定枚数の合成ピクチャをデコード",

		// SPS output
		"Exactly one input file is required": "入力ファイルを1つだけ指定してください",
		"Codec":                              "コーデック",
		"Profile":                            "プロファイル",
		"Format class":                       "フォーマットクラス",
		"Coded size":                         "符号化サイズ",
		"Visible":                            "表示領域",
		"Minimum surfaces":                   "最小サーフェス数",

		// Synth command
		"Decode a synthetic stream, optionally changing resolution midway": "合成ストリームをデコード（途中で解像度変更も可能）",

		// Synth flags
		"Stream profile":                                    "ストリームのプロファイル",
		"Initial coded size as WxH":                         "初期の符号化サイズ（WxH）",
		"Chroma format (420, 422, 444)":                     "クロマフォーマット（420, 422, 444）",
		"Bit depth (8, 10, 12)":                             "ビット深度（8, 10, 12）",
		"Number of pictures":                                "ピクチャ数",
		"Surfaces the stream keeps referenced":              "ストリームが参照として保持するサーフェス数",
		"Switch to WxH at picture N, as WxH@N (repeatable)": "N枚目でWxHに切り替え（WxH@N形式、複数指定可）",

		// Results
		"Sequences":  "シーケンス数",
		"Frames":     "フレーム数",
		"Written to": "書き込み先",

		// Version command
		"Print the version": "バージョンを表示",
	})
}
