package main

import (
	"context"
	"fmt"

	"olapp/internal/shared/catalog"
	"olapp/pkg/logging"
)

// categorySpec 默认分类定义，Parent 为父分类 slug
type categorySpec struct {
	Name   string
	Slug   string
	Parent string
}

// defaultCategories 默认两级分类树，父分类必须排在子分类之前
var defaultCategories = []categorySpec{
	{Name: "Comida y Bebidas", Slug: "comida-bebidas"},
	{Name: "Restaurantes", Slug: "restaurantes", Parent: "comida-bebidas"},
	{Name: "Cafeterías", Slug: "cafeterias", Parent: "comida-bebidas"},
	{Name: "Comida Rápida", Slug: "comida-rapida", Parent: "comida-bebidas"},
	{Name: "Panaderías", Slug: "panaderias", Parent: "comida-bebidas"},
	{Name: "Heladerías", Slug: "heladerias", Parent: "comida-bebidas"},
	{Name: "Bebidas", Slug: "bebidas", Parent: "comida-bebidas"},

	{Name: "Ropa y Accesorios", Slug: "ropa-accesorios"},
	{Name: "Ropa Dama", Slug: "ropa-dama", Parent: "ropa-accesorios"},
	{Name: "Ropa Caballero", Slug: "ropa-caballero", Parent: "ropa-accesorios"},
	{Name: "Ropa Niños", Slug: "ropa-ninos", Parent: "ropa-accesorios"},
	{Name: "Calzado", Slug: "calzado", Parent: "ropa-accesorios"},
	{Name: "Accesorios", Slug: "accesorios", Parent: "ropa-accesorios"},
	{Name: "Bolsos", Slug: "bolsos", Parent: "ropa-accesorios"},

	{Name: "Artesanías y Arte", Slug: "artesanias-arte"},
	{Name: "Artesanías Locales", Slug: "artesanias-locales", Parent: "artesanias-arte"},
	{Name: "Arte y Decoración", Slug: "arte-decoracion", Parent: "artesanias-arte"},
	{Name: "Manualidades", Slug: "manualidades", Parent: "artesanias-arte"},
	{Name: "Joyería", Slug: "joyeria", Parent: "artesanias-arte"},

	{Name: "Servicios", Slug: "servicios"},
	{Name: "Servicios Profesionales", Slug: "servicios-profesionales", Parent: "servicios"},
	{Name: "Tecnología y Reparaciones", Slug: "tecnologia-reparaciones", Parent: "servicios"},
	{Name: "Servicios Personales", Slug: "servicios-personales", Parent: "servicios"},

	{Name: "Salud y Bienestar", Slug: "salud-bienestar"},
	{Name: "Farmacias", Slug: "farmacias", Parent: "salud-bienestar"},
	{Name: "Salud Natural", Slug: "salud-natural", Parent: "salud-bienestar"},
	{Name: "Fitness y Deporte", Slug: "fitness-deporte", Parent: "salud-bienestar"},

	{Name: "Hogar", Slug: "hogar"},
	{Name: "Ferreterías", Slug: "ferreterias", Parent: "hogar"},
	{Name: "Decoración", Slug: "decoracion", Parent: "hogar"},
	{Name: "Muebles", Slug: "muebles", Parent: "hogar"},
	{Name: "Jardín", Slug: "jardin", Parent: "hogar"},

	{Name: "Educación", Slug: "educacion"},
	{Name: "Librerías", Slug: "librerias", Parent: "educacion"},
	{Name: "Material Escolar", Slug: "material-escolar", Parent: "educacion"},
	{Name: "Papelerías", Slug: "papelerias", Parent: "educacion"},

	{Name: "Entretenimiento", Slug: "entretenimiento"},
	{Name: "Eventos", Slug: "eventos", Parent: "entretenimiento"},
	{Name: "Música e Instrumentos", Slug: "musica-instrumentos", Parent: "entretenimiento"},
	{Name: "Juegos", Slug: "juegos", Parent: "entretenimiento"},

	{Name: "Tecnología", Slug: "tecnologia"},
	{Name: "Celulares y Accesorios", Slug: "celulares-accesorios", Parent: "tecnologia"},
	{Name: "Computadoras", Slug: "computadoras", Parent: "tecnologia"},
	{Name: "Electrónicos", Slug: "electronicos", Parent: "tecnologia"},

	{Name: "Belleza", Slug: "belleza"},
	{Name: "Cosméticos", Slug: "cosmeticos", Parent: "belleza"},
	{Name: "Peluquerías", Slug: "peluquerias", Parent: "belleza"},
	{Name: "Cuidado Personal", Slug: "cuidado-personal", Parent: "belleza"},

	{Name: "Regalos", Slug: "regalos"},
	{Name: "Detalles", Slug: "detalles", Parent: "regalos"},
	{Name: "Flores", Slug: "flores", Parent: "regalos"},
	{Name: "Artesanías", Slug: "artesanias-regalos", Parent: "regalos"},

	{Name: "Infantil", Slug: "infantil"},
	{Name: "Juguetes", Slug: "juguetes", Parent: "infantil"},
	{Name: "Ropa Bebé", Slug: "ropa-bebe", Parent: "infantil"},
	{Name: "Maternidad", Slug: "maternidad", Parent: "infantil"},

	{Name: "Mascotas", Slug: "mascotas"},
	{Name: "Alimentos", Slug: "alimentos-mascotas", Parent: "mascotas"},
	{Name: "Accesorios", Slug: "accesorios-mascotas", Parent: "mascotas"},
	{Name: "Veterinarias", Slug: "veterinarias", Parent: "mascotas"},

	{Name: "Deportes", Slug: "deportes"},
	{Name: "Artículos Deportivos", Slug: "articulos-deportivos", Parent: "deportes"},
	{Name: "Equipos", Slug: "equipos", Parent: "deportes"},
	{Name: "Calzado Deportivo", Slug: "calzado-deportivo", Parent: "deportes"},

	{Name: "Negocios", Slug: "negocios"},
	{Name: "Suministros de Oficina", Slug: "suministros-oficina", Parent: "negocios"},
	{Name: "Tecnología Empresarial", Slug: "tecnologia-empresarial", Parent: "negocios"},

	{Name: "Agricultura", Slug: "agricultura"},
	{Name: "Agroquímicos", Slug: "agroquimicos", Parent: "agricultura"},
	{Name: "Herramientas", Slug: "herramientas", Parent: "agricultura"},
	{Name: "Semillas", Slug: "semillas", Parent: "agricultura"},
}

// setupResult 执行结果
type setupResult struct {
	Created  []*catalog.Category
	Existing []string
	Errors   map[string]error
}

// setupCategories 按顺序创建分类，已存在的 slug 跳过
//
// 单个分类失败不影响其余分类；父分类不存在时该子分类记为失败。
func setupCategories(ctx context.Context, c catalog.Catalog, specs []categorySpec, logger *logging.Logger, dryRun bool) *setupResult {
	res := &setupResult{Errors: map[string]error{}}
	ids := map[string]int64{}

	lookup := func(slug string) (int64, bool, error) {
		if id, ok := ids[slug]; ok {
			return id, true, nil
		}
		cat, err := catalog.FindCategoryBySlug(ctx, c, slug)
		if err != nil || cat == nil {
			return 0, false, err
		}
		ids[slug] = cat.ID
		return cat.ID, true, nil
	}

	for _, spec := range specs {
		if ctx.Err() != nil {
			res.Errors[spec.Slug] = ctx.Err()
			continue
		}

		_, exists, err := lookup(spec.Slug)
		if err != nil {
			logger.Error("lookup category failed", "slug", spec.Slug, "error", err)
			res.Errors[spec.Slug] = err
			continue
		}
		if exists {
			logger.Info("category exists, skipped", "slug", spec.Slug)
			res.Existing = append(res.Existing, spec.Slug)
			continue
		}

		nc := catalog.NewCategory{Name: spec.Name, Slug: spec.Slug}
		if spec.Parent != "" {
			parentID, ok, err := lookup(spec.Parent)
			if err == nil && !ok {
				err = fmt.Errorf("parent category %q not found", spec.Parent)
			}
			if err != nil {
				logger.Error("resolve parent failed", "slug", spec.Slug, "parent", spec.Parent, "error", err)
				res.Errors[spec.Slug] = err
				continue
			}
			nc.Parent = parentID
		}

		if dryRun {
			logger.Info("would create category", "slug", spec.Slug, "parent", spec.Parent)
			res.Created = append(res.Created, &catalog.Category{Name: nc.Name, Slug: nc.Slug, Parent: nc.Parent})
			// 预演时子分类仍需解析到父分类
			ids[spec.Slug] = 0
			continue
		}

		cat, err := c.CreateCategory(ctx, nc)
		if err != nil {
			logger.Error("create category failed", "slug", spec.Slug, "error", err)
			res.Errors[spec.Slug] = err
			continue
		}
		ids[cat.Slug] = cat.ID
		logger.Info("category created", "slug", cat.Slug, "id", cat.ID, "parent", cat.Parent)
		res.Created = append(res.Created, cat)
	}
	return res
}
