package riva

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

const recognizeMethod = "/nvidia.riva.asr.RivaSpeechRecognition/Recognize"

const encodingLinearPCM protoreflect.EnumNumber = 1

// schema holds the message descriptors for the offline Recognize RPC. Only the
// fields hark reads or writes are declared; unknown fields are preserved.
type schema struct {
	request  protoreflect.MessageDescriptor
	config   protoreflect.MessageDescriptor
	context  protoreflect.MessageDescriptor
	response protoreflect.MessageDescriptor
}

func (s *schema) field(md protoreflect.MessageDescriptor, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := md.Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("riva schema: %s has no field %s", md.FullName(), name))
	}
	return fd
}

func scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func typed(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := scalar(name, number, typ)
	f.TypeName = proto.String(".nvidia.riva.asr." + typeName)
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func loadSchema() (*schema, error) {
	const (
		tString = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tInt32  = descriptorpb.FieldDescriptorProto_TYPE_INT32
		tBool   = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		tFloat  = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
		tBytes  = descriptorpb.FieldDescriptorProto_TYPE_BYTES
		tEnum   = descriptorpb.FieldDescriptorProto_TYPE_ENUM
		tMsg    = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)

	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("hark/riva_asr.proto"),
		Package: proto.String("nvidia.riva.asr"),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("AudioEncoding"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("ENCODING_UNSPECIFIED"), Number: proto.Int32(0)},
				{Name: proto.String("LINEAR_PCM"), Number: proto.Int32(int32(encodingLinearPCM))},
			},
		}},
		MessageType: []*descriptorpb.DescriptorProto{
			message("SpeechContext",
				repeated(scalar("phrases", 1, tString)),
				scalar("boost", 4, tFloat),
			),
			message("RecognitionConfig",
				typed("encoding", 1, tEnum, "AudioEncoding"),
				scalar("sample_rate_hertz", 2, tInt32),
				scalar("language_code", 3, tString),
				scalar("max_alternatives", 4, tInt32),
				repeated(typed("speech_contexts", 6, tMsg, "SpeechContext")),
				scalar("audio_channel_count", 7, tInt32),
				scalar("enable_automatic_punctuation", 11, tBool),
				scalar("model", 13, tString),
			),
			message("RecognizeRequest",
				typed("config", 1, tMsg, "RecognitionConfig"),
				scalar("audio", 2, tBytes),
			),
			message("SpeechRecognitionAlternative",
				scalar("transcript", 1, tString),
				scalar("confidence", 2, tFloat),
			),
			message("SpeechRecognitionResult",
				repeated(typed("alternatives", 1, tMsg, "SpeechRecognitionAlternative")),
			),
			message("RecognizeResponse",
				repeated(typed("results", 1, tMsg, "SpeechRecognitionResult")),
			),
		},
	}

	fd, err := protodesc.NewFile(file, nil)
	if err != nil {
		return nil, fmt.Errorf("build riva descriptors: %w", err)
	}
	msgs := fd.Messages()
	return &schema{
		request:  msgs.ByName("RecognizeRequest"),
		config:   msgs.ByName("RecognitionConfig"),
		context:  msgs.ByName("SpeechContext"),
		response: msgs.ByName("RecognizeResponse"),
	}, nil
}
