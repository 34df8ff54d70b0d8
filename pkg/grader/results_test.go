package grader

import (
	"encoding/json"
	"testing"
)

func TestDecodeEnvelopeGradeReport(t *testing.T) {
	resp := &Response{Body: []byte(`{
		"code": 0,
		"message": "ok",
		"data": {
			"score": 86,
			"breakdown": {"correctness": 36, "standardization": 18, "efficiency": 16, "readability": 16},
			"reason": "solid",
			"suggestions": ["use std::array"],
			"strengths": ["templates"],
			"weaknesses": ["fixed size"]
		}
	}`)}

	env, err := DecodeEnvelope[GradeReport](resp)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !env.OK() || env.Data == nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.Data.Score != 86 || env.Data.Breakdown.Correctness != 36 {
		t.Fatalf("unexpected report %+v", env.Data)
	}
	if len(env.Data.Suggestions) != 1 || env.Data.Suggestions[0] != "use std::array" {
		t.Fatalf("unexpected suggestions %v", env.Data.Suggestions)
	}
}

func TestDecodeEnvelopeFailureCode(t *testing.T) {
	resp := &Response{Body: []byte(`{"code":1001,"message":"invalid id","data":null}`)}
	env, err := DecodeEnvelope[OCRResult](resp)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if env.OK() || env.Code != CodeValidationFailed || env.Data != nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeEnvelope[OCRResult](&Response{Body: []byte("not json")}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDecodeEnvelopeAcceptsStatusPair(t *testing.T) {
	resp := &Response{Body: []byte(`[{"code":0,"message":"成功","data":{"recognizedCode":"int main(){}"}},200]`)}
	env, err := DecodeEnvelope[OCRResult](resp)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !env.OK() || env.Message != "成功" || env.Data == nil || env.Data.RecognizedCode != "int main(){}" {
		t.Fatalf("unexpected envelope %+v", env)
	}

	failed, err := DecodeEnvelope[OCRResult](&Response{Body: []byte(` [{"code":1002,"message":"服务异常","data":null},500]`)})
	if err != nil {
		t.Fatalf("DecodeEnvelope failure pair: %v", err)
	}
	if failed.Code != CodeServiceFailed || failed.Data != nil {
		t.Fatalf("unexpected failure envelope %+v", failed)
	}

	if _, err := DecodeEnvelope[OCRResult](&Response{Body: []byte(`[]`)}); err == nil {
		t.Fatalf("expected error for empty array")
	}
}

func TestDecodeUploadResultIDForms(t *testing.T) {
	numeric, err := DecodeEnvelope[UploadResult](&Response{Body: []byte(
		`[{"code":0,"message":"成功","data":{"assignmentId":1,"fileName":"homework1.jpg"}},200]`)})
	if err != nil {
		t.Fatalf("DecodeEnvelope numeric: %v", err)
	}
	if numeric.Data.AssignmentID != "1" || numeric.Data.FileName != "homework1.jpg" {
		t.Fatalf("unexpected upload result %+v", numeric.Data)
	}

	var quoted UploadResult
	if err := json.Unmarshal([]byte(`{"assignmentId":"abcd1234","fileName":"a.cpp"}`), &quoted); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if quoted.AssignmentID != "abcd1234" {
		t.Fatalf("assignment id = %q", quoted.AssignmentID)
	}

	var bad UploadResult
	if err := json.Unmarshal([]byte(`{"assignmentId":{}}`), &bad); err == nil {
		t.Fatalf("expected error for object id")
	}
}

func TestDecodeCompileResultWithNulls(t *testing.T) {
	resp := &Response{Body: []byte(`{"code":0,"message":"成功","data":{
		"language":"C++","codeLengthBytes":118,
		"submitTime":"2025-10-01 12:00:00","evalTime":"2025-10-01 12:00:01",
		"compileSuccess":true,"output":"Hello, World!\n","error":null}}`)}
	env, err := DecodeEnvelope[CompileResult](resp)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	got := env.Data
	if got == nil || !got.CompileSuccess || got.Language != "C++" || got.CodeLengthBytes != 118 {
		t.Fatalf("unexpected compile result %+v", got)
	}
	if got.Output != "Hello, World!\n" || got.Error != "" {
		t.Fatalf("output=%q error=%q", got.Output, got.Error)
	}
}
