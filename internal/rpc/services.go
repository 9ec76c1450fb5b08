package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	CatalogServiceName   = "eyewear.catalog.v1.CatalogService"
	ValueServiceName     = "eyewear.catalog.v1.ValueRegistryService"
	InventoryServiceName = "eyewear.inventory.v1.InventoryService"
)

type CatalogServer interface {
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NewDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyActions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		method(CatalogServiceName, "CreateProduct", func(s any) UnaryFunc { return s.(CatalogServer).CreateProduct }),
		method(CatalogServiceName, "UpdateProduct", func(s any) UnaryFunc { return s.(CatalogServer).UpdateProduct }),
		method(CatalogServiceName, "GetProduct", func(s any) UnaryFunc { return s.(CatalogServer).GetProduct }),
		method(CatalogServiceName, "ListProducts", func(s any) UnaryFunc { return s.(CatalogServer).ListProducts }),
		method(CatalogServiceName, "DeleteProduct", func(s any) UnaryFunc { return s.(CatalogServer).DeleteProduct }),
		method(CatalogServiceName, "NewDraft", func(s any) UnaryFunc { return s.(CatalogServer).NewDraft }),
		method(CatalogServiceName, "ApplyActions", func(s any) UnaryFunc { return s.(CatalogServer).ApplyActions }),
		method(CatalogServiceName, "ValidateDraft", func(s any) UnaryFunc { return s.(CatalogServer).ValidateDraft }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eyewear/catalog/v1/catalog.proto",
}

type ValueRegistryServer interface {
	ListValues(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddValue(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var ValueRegistryServiceDesc = grpc.ServiceDesc{
	ServiceName: ValueServiceName,
	HandlerType: (*ValueRegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		method(ValueServiceName, "ListValues", func(s any) UnaryFunc { return s.(ValueRegistryServer).ListValues }),
		method(ValueServiceName, "AddValue", func(s any) UnaryFunc { return s.(ValueRegistryServer).AddValue }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eyewear/catalog/v1/values.proto",
}

type InventoryServer interface {
	AdjustStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLowStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMovements(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		method(InventoryServiceName, "AdjustStock", func(s any) UnaryFunc { return s.(InventoryServer).AdjustStock }),
		method(InventoryServiceName, "GetStock", func(s any) UnaryFunc { return s.(InventoryServer).GetStock }),
		method(InventoryServiceName, "ListLowStock", func(s any) UnaryFunc { return s.(InventoryServer).ListLowStock }),
		method(InventoryServiceName, "ListMovements", func(s any) UnaryFunc { return s.(InventoryServer).ListMovements }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eyewear/inventory/v1/inventory.proto",
}
